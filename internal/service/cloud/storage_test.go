package cloud

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions/mock-interview/internal/common/utils"
)

func TestResumeKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	key := ResumeKey("resumes", "u1", "../My CV (final).pdf", now)
	assert.Equal(t, "resumes/u1/1700000000000-My_CV__final_.pdf", key)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "resume", SanitizeFileName(""))
	assert.Equal(t, "resume", SanitizeFileName("..."))
	assert.Equal(t, "a.txt", SanitizeFileName(`C:\Users\me\a.txt`))
	assert.Equal(t, "___.docx", SanitizeFileName("简历中.docx"))
	long := strings.Repeat("x", 200) + ".pdf"
	assert.Len(t, SanitizeFileName(long), 100)
	assert.True(t, strings.HasSuffix(SanitizeFileName(long), ".pdf"))
}

func TestLocalStoragePut(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "/uploads")

	url, err := s.Put(context.Background(), "resumes/u1/1-cv.txt", "text/plain", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/resumes/u1/1-cv.txt", url)

	data, err := os.ReadFile(filepath.Join(root, "resumes", "u1", "1-cv.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStorageRejectsEscape(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "")
	_, err := s.Put(context.Background(), "../evil.txt", "text/plain", strings.NewReader("x"), 1)
	assert.Error(t, err)
}

func TestLocalStoragePath(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "/uploads")
	_, err := s.Put(context.Background(), "resumes/u1/1-cv.txt", "text/plain", strings.NewReader("hello"), 5)
	require.NoError(t, err)

	p, err := s.Path("resumes/u1/1-cv.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "resumes", "u1", "1-cv.txt"), p)

	_, err = s.Path("resumes/u1")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Path("resumes/u1/missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Path("../etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageShortWrite(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "")
	_, err := s.Put(context.Background(), "a/b.txt", "text/plain", strings.NewReader("abc"), 10)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "a", "b.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewStorage(t *testing.T) {
	conf := utils.NewSample().Storage

	s, err := NewStorage(conf)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	conf.Provider = "kodo"
	s, err = NewStorage(conf)
	require.NoError(t, err)
	assert.IsType(t, &KodoStorage{}, s)

	conf.Provider = "minio"
	_, err = NewStorage(conf)
	assert.Error(t, err)

	conf.Minio.Endpoint = "localhost:9000"
	conf.Bucket = "resumes"
	s, err = NewStorage(conf)
	require.NoError(t, err)
	assert.IsType(t, &MinioStorage{}, s)

	conf.Provider = "ftp"
	_, err = NewStorage(conf)
	assert.Error(t, err)
}
