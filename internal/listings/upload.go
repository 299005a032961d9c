// internal/listings/upload.go

package listings

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// Uploader stores listing images and resolves their public URLs.
type Uploader interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	PublicURL(storagePath string) string
}

var allowedImageTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp",
}

func isAllowedImageType(contentType string) bool {
	for _, allowed := range allowedImageTypes {
		if allowed == contentType {
			return true
		}
	}
	return false
}

func detectContentType(file multipart.File) (string, error) {
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

func storageKey(filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("listings/%s/%s%s",
		time.Now().Format("2006/01/02"),
		uuid.New().String(),
		ext,
	)
}

type s3Uploader struct {
	s3Client    *s3.S3
	bucketName  string
	publicURL   string
	maxFileSize int64
}

// NewS3Uploader creates an uploader backed by S3
func NewS3Uploader(awsSession *session.Session, bucketName, publicURL string, maxFileSize int64) Uploader {
	return &s3Uploader{
		s3Client:    s3.New(awsSession),
		bucketName:  bucketName,
		publicURL:   publicURL,
		maxFileSize: maxFileSize,
	}
}

func (u *s3Uploader) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	defer file.Close()

	contentType, err := detectContentType(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	if !isAllowedImageType(contentType) {
		return "", fmt.Errorf("file type %s not allowed", contentType)
	}

	buf := new(bytes.Buffer)
	size, err := io.Copy(buf, file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	if size > u.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", size, u.maxFileSize)
	}

	key := storageKey(header.Filename)

	_, err = u.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		ACL:           aws.String("public-read"),
		Metadata: map[string]*string{
			"uploaded-at": aws.String(time.Now().Format(time.RFC3339)),
			"file-name":   aws.String(header.Filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return key, nil
}

func (u *s3Uploader) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/%s", u.publicURL, storagePath)
}

type localUploader struct {
	baseDir     string
	baseURL     string
	maxFileSize int64
}

// NewLocalUploader creates an uploader that writes to the local filesystem.
// Used in development when S3 is not configured.
func NewLocalUploader(baseDir, baseURL string, maxFileSize int64) Uploader {
	return &localUploader{
		baseDir:     baseDir,
		baseURL:     baseURL,
		maxFileSize: maxFileSize,
	}
}

func (u *localUploader) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	defer file.Close()

	contentType, err := detectContentType(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	if !isAllowedImageType(contentType) {
		return "", fmt.Errorf("file type %s not allowed", contentType)
	}

	key := storageKey(header.Filename)
	fullPath := filepath.Join(u.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(file, u.maxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}
	if size > u.maxFileSize {
		os.Remove(fullPath)
		return "", fmt.Errorf("file size exceeds maximum allowed size %d", u.maxFileSize)
	}

	return key, nil
}

func (u *localUploader) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/%s", u.baseURL, storagePath)
}
