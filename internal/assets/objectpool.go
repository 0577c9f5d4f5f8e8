package assets

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	judgeerr "judgecore/pkg/errors"
)

// ObjectPoolConfig names an S3-compatible bucket an ObjectPool reads from.
type ObjectPoolConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// ObjectPool is a Pool backed by an S3-compatible object store, for asset
// sets too large to embed in the binary (stock checker sources, language
// runtime images). Grounded on
// `internal/common/storage.MinIOStorage`'s constructor shape
// (`credentials.NewStaticV4`, `minio.Options{Secure: cfg.UseSSL}`); that
// type wraps `minio.Core` for its multipart-upload API, which this
// read-only pool has no use for, so ObjectPool wraps the plain
// `minio.Client` instead and only needs its `GetObject` call.
type ObjectPool struct {
	client *minio.Client
	bucket string
}

// NewObjectPool connects to cfg's endpoint and returns an ObjectPool
// reading from cfg.Bucket.
func NewObjectPool(cfg ObjectPoolConfig) (*ObjectPool, error) {
	if cfg.Endpoint == "" {
		return nil, judgeerr.Newf(judgeerr.InvalidParams, "object pool endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, judgeerr.Newf(judgeerr.InvalidParams, "object pool bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, judgeerr.Wrapf(err, judgeerr.InvalidParams, "create object pool client")
	}
	return &ObjectPool{client: client, bucket: cfg.Bucket}, nil
}

// Get fetches path as an object key from the pool's bucket.
func (p *ObjectPool) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, judgeerr.Wrapf(err, judgeerr.FileNotFound, "asset %q not found", path).WithDetail("path", path)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, judgeerr.Wrapf(err, judgeerr.FileNotFound, "read asset %q", path).WithDetail("path", path)
	}
	return buf.Bytes(), nil
}
