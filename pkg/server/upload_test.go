package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"imushare/pkg/models"
	"imushare/pkg/records"
)

// UploadTestSuite tests the upload functionality
type UploadTestSuite struct {
	handlerSuite
}

func (s *UploadTestSuite) upload(body *bytes.Buffer) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := s.server.echo.NewContext(newUploadRequest(body), rec)

	s.Require().NoError(s.server.uploadFile(c))
	return rec
}

func (s *UploadTestSuite) uploadedID(rec *httptest.ResponseRecorder) string {
	var response models.UploadResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Require().True(strings.HasPrefix(response.File, testBaseURL+"/files/"), response.File)

	id := strings.TrimPrefix(response.File, testBaseURL+"/files/")
	_, err := uuid.Parse(id)
	s.Require().NoError(err)
	return id
}

// TestUploadFileSuccess tests successful file upload
func (s *UploadTestSuite) TestUploadFileSuccess() {
	rec := s.upload(multipartBody("myfile", "report.pdf", "0123456789"))
	s.Equal(http.StatusOK, rec.Code)

	id := s.uploadedID(rec)

	record, err := s.records.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(id+".pdf", record.StoredName)
	s.Equal("report.pdf", record.OriginalName)
	s.Equal(int64(10), record.SizeBytes)
	s.Empty(record.Sender)
	s.Empty(record.Receiver)
	s.False(record.Notified)

	content, err := os.ReadFile(filepath.Join(s.uploadDir, record.StoredName))
	s.Require().NoError(err)
	s.Equal("0123456789", string(content))
}

// TestUploadFileResponseShape tests that the response carries only the link
func (s *UploadTestSuite) TestUploadFileResponseShape() {
	rec := s.upload(multipartBody("myfile", "a.txt", "data"))
	s.Equal(http.StatusOK, rec.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Len(response, 1)
	s.Contains(response, "file")
}

// TestUploadFileUniqueIDs tests that identical uploads get distinct records
func (s *UploadTestSuite) TestUploadFileUniqueIDs() {
	first := s.uploadedID(s.upload(multipartBody("myfile", "same.txt", "same content")))
	second := s.uploadedID(s.upload(multipartBody("myfile", "same.txt", "same content")))

	s.NotEqual(first, second)
	s.Len(s.uploadDirEntries(), 2)
}

// TestUploadFileWithoutExtension tests the stored name of a file without extension
func (s *UploadTestSuite) TestUploadFileWithoutExtension() {
	id := s.uploadedID(s.upload(multipartBody("myfile", "README", "readme")))

	record, err := s.records.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(id, record.StoredName)
	s.Equal("README", record.OriginalName)
}

// TestUploadFileExactLimit tests a file at the size limit
func (s *UploadTestSuite) TestUploadFileExactLimit() {
	rec := s.upload(multipartBody("myfile", "limit.bin", strings.Repeat("x", testMaxSize)))
	s.Equal(http.StatusOK, rec.Code)
	s.Len(s.uploadDirEntries(), 1)
}

// TestUploadFileTooLarge tests that oversized files are rejected and nothing is kept
func (s *UploadTestSuite) TestUploadFileTooLarge() {
	rec := s.upload(multipartBody("myfile", "big.bin", strings.Repeat("x", testMaxSize+1)))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("File too large", s.decodeError(rec).Error)
	s.Empty(s.uploadDirEntries())
}

// TestUploadFileMissingFile tests upload when the file field is absent
func (s *UploadTestSuite) TestUploadFileMissingFile() {
	rec := s.upload(multipartBody("notfile", "test.txt", "some data"))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("All fields are required", s.decodeError(rec).Error)
	s.Empty(s.uploadDirEntries())
}

// TestUploadFileFieldWithoutFilename tests that a plain form value is not a file
func (s *UploadTestSuite) TestUploadFileFieldWithoutFilename() {
	rec := s.upload(multipartBody("myfile", "", "not a file"))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("All fields are required", s.decodeError(rec).Error)
}

// TestUploadFileNotMultipart tests upload with a non-multipart body
func (s *UploadTestSuite) TestUploadFileNotMultipart() {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"myfile":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Require().NoError(s.server.uploadFile(s.server.echo.NewContext(req, rec)))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("All fields are required", s.decodeError(rec).Error)
}

// TestUploadFileInvalidMultipart tests upload with invalid multipart data
func (s *UploadTestSuite) TestUploadFileInvalidMultipart() {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("invalid multipart data")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=invalid")
	rec := httptest.NewRecorder()

	s.Require().NoError(s.server.uploadFile(s.server.echo.NewContext(req, rec)))
	s.Equal(http.StatusBadRequest, rec.Code)
}

// TestUploadFileIgnoresOtherParts tests that other fields around the file are skipped
func (s *UploadTestSuite) TestUploadFileIgnoresOtherParts() {
	body := &bytes.Buffer{}
	body.WriteString("--" + testBoundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"comment\"\r\n\r\n")
	body.WriteString("hello")
	body.WriteString("\r\n--" + testBoundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"myfile\"; filename=\"first.txt\"\r\n\r\n")
	body.WriteString("first")
	body.WriteString("\r\n--" + testBoundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"myfile\"; filename=\"second.txt\"\r\n\r\n")
	body.WriteString("second")
	body.WriteString("\r\n--" + testBoundary + "--\r\n")

	rec := s.upload(body)
	s.Equal(http.StatusOK, rec.Code)

	record, err := s.records.Get(context.Background(), s.uploadedID(rec))
	s.Require().NoError(err)
	s.Equal("first.txt", record.OriginalName)
	s.Equal(int64(5), record.SizeBytes)
	s.Len(s.uploadDirEntries(), 1)
}

// TestUploadFileRecordFailure tests that the stored file is removed when its record cannot be saved
func (s *UploadTestSuite) TestUploadFileRecordFailure() {
	s.server = s.newServer(false, &faultyRepository{
		Repository: s.records,
		createErr:  records.ErrDatabaseError,
	})

	rec := s.upload(multipartBody("myfile", "orphan.txt", "data"))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("database error", s.decodeError(rec).Error)
	s.Empty(s.uploadDirEntries())
}

// TestUploadFileIDCheckFailure tests that an unavailable record store stops the upload before storage
func (s *UploadTestSuite) TestUploadFileIDCheckFailure() {
	s.server = s.newServer(false, &faultyRepository{
		Repository: s.records,
		existsErr:  errors.New("database is locked"),
	})

	rec := s.upload(multipartBody("myfile", "a.txt", "data"))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("database is locked", s.decodeError(rec).Error)
	s.Empty(s.uploadDirEntries())
}

// TestUploadSuite runs the upload test suite
func TestUploadSuite(t *testing.T) {
	suite.Run(t, new(UploadTestSuite))
}
