// Package storage persists scraped documents and evaluation logs in
// S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client wraps the MinIO/S3 client for document and eval-log storage.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a storage client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &Client{minioClient: minioClient, bucket: config.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	return nil
}

// ScrapeManifest describes one scrape run.
type ScrapeManifest struct {
	SourceURL string   `json:"source_url"`
	Timestamp string   `json:"timestamp"`
	PageCount int      `json:"page_count"`
	Pages     []string `json:"pages"`
}

// PutDocument writes a parsed document as JSON under the prefix. The
// object name is derived from the document ID.
func (c *Client) PutDocument(ctx context.Context, prefix string, doc models.Document) error {
	objectName := path.Join(prefix, "pages", doc.ID+".json")

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document %s: %w", doc.ID, err)
	}

	_, err = c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("putting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument reads a document back by object name, as returned by
// ListDocuments.
func (c *Client) GetDocument(ctx context.Context, prefix, name string) (models.Document, error) {
	objectName := path.Join(prefix, "pages", name)

	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return models.Document{}, fmt.Errorf("getting document %s: %w", name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return models.Document{}, fmt.Errorf("reading document %s: %w", name, err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("unmarshaling document %s: %w", name, err)
	}
	return doc, nil
}

// ListDocuments returns the object names of all documents under a
// prefix.
func (c *Client) ListDocuments(ctx context.Context, prefix string) ([]string, error) {
	pagesPrefix := path.Join(prefix, "pages") + "/"
	var names []string

	objectCh := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    pagesPrefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("listing documents: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, ".json") {
			names = append(names, path.Base(object.Key))
		}
	}
	return names, nil
}

// PutManifest writes the scrape manifest under the prefix.
func (c *Client) PutManifest(ctx context.Context, prefix string, manifest ScrapeManifest) error {
	objectName := path.Join(prefix, "manifest.json")

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	_, err = c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("putting manifest: %w", err)
	}
	return nil
}

// GetManifest reads the scrape manifest for a prefix.
func (c *Client) GetManifest(ctx context.Context, prefix string) (*ScrapeManifest, error) {
	objectName := path.Join(prefix, "manifest.json")

	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting manifest: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest ScrapeManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return &manifest, nil
}

// ArchiveEvalLog uploads an evaluation log under eval-logs/ so runs
// survive local cleanup.
func (c *Client) ArchiveEvalLog(ctx context.Context, name string, r io.Reader, size int64) error {
	objectName := path.Join("eval-logs", name)

	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return fmt.Errorf("archiving eval log %s: %w", name, err)
	}
	return nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
