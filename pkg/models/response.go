package models

import "strconv"

const bytesPerKB = 1000

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	File string `json:"file"`
}

// SendResponse is returned when the share email went out.
type SendResponse struct {
	Success bool `json:"success"`
}

// FileInfoResponse describes a shared file to whoever opens its link.
type FileInfoResponse struct {
	UUID         string `json:"uuid"`
	FileName     string `json:"fileName"`
	FileSize     string `json:"fileSize"`
	SizeBytes    int64  `json:"sizeBytes"`
	DownloadLink string `json:"downloadLink"`
}

// ErrorResponse is the error payload of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func formatKB(size int64) string {
	return strconv.FormatInt(size/bytesPerKB, 10) + " KB"
}
