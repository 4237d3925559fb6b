package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// BlobStore persists uploaded files and returns the URL they are served at.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// LocalBlobStore writes files under Root, served by the HTTP layer at
// URLPrefix.
type LocalBlobStore struct {
	Root      string
	URLPrefix string
}

func NewLocalBlobStore(root, urlPrefix string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBlobStore{Root: root, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (l *LocalBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	target := filepath.Join(l.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	file, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", err
	}
	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written != size {
		err = fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err == nil {
		err = os.Rename(file.Name(), target)
	}
	if err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return l.URLPrefix + "/" + key, nil
}

type S3Config struct {
	Bucket    string
	Prefix    string
	PublicURL string
}

// S3BlobStore uploads through the multipart manager and returns PublicURL
// joined with the object key.
type S3BlobStore struct {
	cfg      S3Config
	uploader *manager.Uploader
}

func NewS3BlobStore(client *s3.Client, cfg S3Config) *S3BlobStore {
	return &S3BlobStore{cfg: cfg, uploader: manager.NewUploader(client)}
}

func (b *S3BlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	objectKey := path.Join(b.cfg.Prefix, key)
	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.Bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", objectKey, err)
	}
	base := strings.TrimSuffix(b.cfg.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", b.cfg.Bucket)
	}
	return base + "/" + objectKey, nil
}

var allowedImages = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true, ".webp": true,
}

type UploadedImage struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type MediaService struct {
	Blobs    BlobStore
	MaxBytes int64
}

// UploadImage checks the extension, the sniffed content type and the size
// before storing the file under a fresh name.
func (m MediaService) UploadImage(ctx context.Context, filename string, body io.Reader) (UploadedImage, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return UploadedImage{}, ErrValidation("Only image files are allowed (jpg, jpeg, png, gif, svg, webp)")
	}
	data, err := io.ReadAll(io.LimitReader(body, m.MaxBytes+1))
	if err != nil {
		return UploadedImage{}, err
	}
	if len(data) == 0 {
		return UploadedImage{}, ErrValidation("Please upload a file")
	}
	if int64(len(data)) > m.MaxBytes {
		return UploadedImage{}, ErrValidation(fmt.Sprintf("File too large. Maximum size is %dMB", m.MaxBytes/(1<<20)))
	}
	contentType, canonical := detectImage(data)
	if contentType == "" {
		return UploadedImage{}, ErrValidation("Only image files are allowed (jpg, jpeg, png, gif, svg, webp)")
	}
	if ext == ".jpeg" {
		canonical = ext
	}
	name := uuid.NewString() + canonical
	url, err := m.Blobs.Put(ctx, name, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return UploadedImage{}, err
	}
	return UploadedImage{URL: url, Filename: name, Size: int64(len(data)), ContentType: contentType}, nil
}

func detectImage(data []byte) (string, string) {
	for mime := mimetype.Detect(data); mime != nil; mime = mime.Parent() {
		base := strings.SplitN(mime.String(), ";", 2)[0]
		if ext, ok := allowedImages[base]; ok {
			return base, ext
		}
	}
	return "", ""
}
