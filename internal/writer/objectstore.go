package writer

import (
	"bytes"
	"context"
	"io"
	"path"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// ObjectStoreConfig holds the settings needed to reach an S3-compatible
// object store.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether an endpoint and bucket are configured.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// ObjectPutter is the subset of *minio.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
}

// NewMinioClient builds a MinIO client from cfg.
func NewMinioClient(cfg ObjectStoreConfig) (*miniogo.Client, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrObjectStore, err, "failed to create object store client").
			With("endpoint", cfg.Endpoint)
	}
	return client, nil
}

// ObjectStore is a Target uploading each file as one object on Close.
type ObjectStore struct {
	ctx    context.Context
	client ObjectPutter
	bucket string
	prefix string
	opts   Options
}

// NewObjectStore creates an object store target. Object keys are
// prefix + "/" + name.
func NewObjectStore(ctx context.Context, client ObjectPutter, bucket, prefix string, opts Options) *ObjectStore {
	return &ObjectStore{ctx: ctx, client: client, bucket: bucket, prefix: prefix, opts: opts}
}

// NewWriter returns a writer uploading into the bucket.
func (s *ObjectStore) NewWriter() Writer {
	return &objectWriter{store: s, lineBuffer: lineBuffer{indent: s.opts.Indent}}
}

// Location returns the s3:// URL of name.
func (s *ObjectStore) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *ObjectStore) key(name string) string {
	if s.prefix == "" {
		return path.Clean(name)
	}
	return path.Join(s.prefix, name)
}

type objectWriter struct {
	lineBuffer
	store *ObjectStore
}

func (w *objectWriter) Open(name string) error {
	return w.begin(name)
}

func (w *objectWriter) Close() error {
	content, err := w.end()
	if err != nil {
		return err
	}

	key := w.store.key(w.name)
	_, err = w.store.client.PutObject(w.store.ctx, w.store.bucket, key,
		bytes.NewReader(content), int64(len(content)),
		miniogo.PutObjectOptions{ContentType: "application/javascript"})
	if err != nil {
		return alerr.Wrap(alerr.ErrObjectStore, err, "failed to upload model file").
			With("bucket", w.store.bucket).
			With("key", key)
	}
	return nil
}
