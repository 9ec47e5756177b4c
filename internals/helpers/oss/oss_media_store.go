// internals/helpers/oss/oss_media_store.go
package helper

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"propertytools_backend/internals/configs"
)

var ErrOSSNotConfigured = errors.New("ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET not set")

// deleteChunk is the DeleteObjects limit per request.
const deleteChunk = 1000

// OSSMediaStore deletes offloaded uploads from an OSS bucket. Prefix is the
// object key prefix the uploads live under ("wp-content/uploads").
type OSSMediaStore struct {
	Bucket *oss.Bucket
	Prefix string
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	if ep == "" {
		return ep
	}
	if strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
		return ep
	}
	return "https://" + ep
}

func NewOSSMediaStoreFromEnv() (*OSSMediaStore, error) {
	endpoint := normalizeEndpoint(configs.GetEnv("ALI_OSS_ENDPOINT"))
	ak := strings.TrimSpace(configs.GetEnv("ALI_OSS_ACCESS_KEY"))
	sk := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECRET_KEY"))
	sts := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECURITY_TOKEN"))
	bucketName := strings.TrimSpace(configs.GetEnv("ALI_OSS_BUCKET"))
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, ErrOSSNotConfigured
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	configs.Logger.Sugar().Infof("[MEDIA-STORE] using OSS bucket=%s", bucketName)
	return &OSSMediaStore{
		Bucket: bkt,
		Prefix: strings.Trim(configs.GetEnv("ALI_OSS_UPLOADS_PREFIX", "wp-content/uploads"), "/"),
	}, nil
}

func (s *OSSMediaStore) Name() string { return "oss" }

func (s *OSSMediaStore) objectKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if s.Prefix == "" {
		return key
	}
	return path.Join(s.Prefix, key)
}

func (s *OSSMediaStore) Remove(ctx context.Context, keys []string) (int, error) {
	objects := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			objects = append(objects, s.objectKey(k))
		}
	}

	removed := 0
	var errs []error
	for i := 0; i < len(objects); i += deleteChunk {
		end := i + deleteChunk
		if end > len(objects) {
			end = len(objects)
		}
		chunk := objects[i:end]
		if _, err := s.Bucket.DeleteObjects(chunk, oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
			configs.Logger.Sugar().Warnf("[MEDIA-STORE] delete batch %d-%d failed: %v", i, end, err)
			errs = append(errs, err)
			continue
		}
		removed += len(chunk)
	}
	return removed, errors.Join(errs...)
}
