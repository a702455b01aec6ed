package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"imushare/pkg/models"
)

const downloadTestID = "9d2b6e41-5c7a-4f08-8b3e-1a0c4d6f2e59"

// DownloadTestSuite tests file info and download
type DownloadTestSuite struct {
	handlerSuite
}

func (s *DownloadTestSuite) call(handler echo.HandlerFunc, path, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := s.server.echo.NewContext(req, rec)
	c.SetParamNames("uuid")
	c.SetParamValues(id)

	s.Require().NoError(handler(c))
	return rec
}

// TestGetFileInfoSuccess tests file details for a stored file
func (s *DownloadTestSuite) TestGetFileInfoSuccess() {
	s.Require().NoError(s.records.Create(context.Background(), &models.FileRecord{
		ID:           downloadTestID,
		StoredName:   downloadTestID + ".jpg",
		OriginalName: "photo.jpg",
		SizeBytes:    2500,
	}))

	rec := s.call(s.server.getFileInfo, "/files/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusOK, rec.Code)

	var response models.FileInfoResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal(downloadTestID, response.UUID)
	s.Equal("photo.jpg", response.FileName)
	s.Equal("2 KB", response.FileSize)
	s.Equal(int64(2500), response.SizeBytes)
	s.Equal("https://example.com/files/download/"+downloadTestID, response.DownloadLink)
}

// TestGetFileInfoNotFound tests file details for an unknown uuid
func (s *DownloadTestSuite) TestGetFileInfoNotFound() {
	rec := s.call(s.server.getFileInfo, "/files/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Link has been expired.", s.decodeError(rec).Error)
}

// TestGetFileInfoStoreUnavailable tests file details when the record store fails
func (s *DownloadTestSuite) TestGetFileInfoStoreUnavailable() {
	s.Require().NoError(s.records.Close())

	rec := s.call(s.server.getFileInfo, "/files/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("store_unavailable", s.decodeError(rec).Code)
}

// TestDownloadFileSuccess tests successful file download
func (s *DownloadTestSuite) TestDownloadFileSuccess() {
	content := "test file content for download"
	s.seedFile(downloadTestID, "notes.txt", content)

	rec := s.call(s.server.downloadFile, "/files/download/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(content, rec.Body.String())
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "notes.txt")
}

// TestDownloadFileNotFound tests download when the record doesn't exist
func (s *DownloadTestSuite) TestDownloadFileNotFound() {
	rec := s.call(s.server.downloadFile, "/files/download/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Link has been expired.", s.decodeError(rec).Error)
}

// TestDownloadFileMissingOnDisk tests download when the record outlived its file
func (s *DownloadTestSuite) TestDownloadFileMissingOnDisk() {
	record := s.seedFile(downloadTestID, "notes.txt", "data")
	s.Require().NoError(os.Remove(filepath.Join(s.uploadDir, record.StoredName)))

	rec := s.call(s.server.downloadFile, "/files/download/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusNotFound, rec.Code)
}

// TestDownloadFileFallbackName tests the attachment name of a record without original name
func (s *DownloadTestSuite) TestDownloadFileFallbackName() {
	result, err := s.files.Save(downloadTestID, "data.csv", strings.NewReader("a,b"))
	s.Require().NoError(err)
	s.Require().NoError(s.records.Create(context.Background(), &models.FileRecord{
		ID:         downloadTestID,
		StoredName: result.StoredName,
		SizeBytes:  result.Size,
	}))

	rec := s.call(s.server.downloadFile, "/files/download/"+downloadTestID, downloadTestID)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("a,b", rec.Body.String())
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), downloadTestID+".csv")
}

// TestDownloadSuite runs the download test suite
func TestDownloadSuite(t *testing.T) {
	suite.Run(t, new(DownloadTestSuite))
}
