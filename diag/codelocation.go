package diag

// CodeLocation represents a location in the code, referencing the original
// source position of a bytecode instruction rather than a byte offset in
// generated text.
type CodeLocation struct {
	FilePath    string `yaml:"filePath,omitempty"`
	LineNumber  int    `yaml:"lineNumber,omitempty"`
	ColumnStart int    `yaml:"columnStart,omitempty"`
	ColumnEnd   int    `yaml:"columnEnd,omitempty"`
}
