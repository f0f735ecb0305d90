package models

// UploadedFile represents an image written to the uploads directory.
type UploadedFile struct {
	DisplayName string `json:"display_name"`
	StorageName string `json:"storage_name"`
	Path        string `json:"path"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
}

// TranslationRecord is the row persisted for every gateway call.
type TranslationRecord struct {
	FileName     string `json:"file_name"`
	ResponseText string `json:"response_text"`
}
