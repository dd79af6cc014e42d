package entity

// SourceFile represents one reminder file picked up from disk.
type SourceFile struct {
	SourcePath  string `json:"source_path"`
	ContentHash []byte `json:"content_hash"`
	Filename    string `json:"filename"`
	FileExt     string `json:"file_ext"`
	FileSize    int    `json:"file_size"`
	Text        string `json:"-"`
}
