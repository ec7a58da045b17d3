// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package objectstore serves binary fields from an S3 compatible bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/z5labs/apio/config"
	"github.com/z5labs/apio/representor"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store reads and writes the objects of a single bucket.
type Store struct {
	mc     *minio.Client
	bucket string
}

// MissingBucketError is returned when no bucket is configured.
type MissingBucketError struct{}

func (MissingBucketError) Error() string {
	return "object store bucket is not configured"
}

// New creates a [Store] for the configured bucket. No request is made until
// the store is used.
func New(cfg config.ObjectStore) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, MissingBucketError{}
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Store{mc: mc, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Healthy implements the health.Monitor interface. The store is healthy
// while its bucket is reachable.
func (s *Store) Healthy(ctx context.Context) (bool, error) {
	return s.mc.BucketExists(ctx, s.bucket)
}

// Put uploads an object. A negative size streams r until EOF.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.mc.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Remove deletes an object. Removing a missing object is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Open returns the object stored under key. A missing object is reported as
// a [representor.BinaryNotFoundError].
func (s *Store) Open(ctx context.Context, key string) (representor.BinaryFile, error) {
	if key == "" {
		return representor.BinaryFile{}, representor.BinaryNotFoundError{Key: key}
	}

	obj, err := s.mc.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return representor.BinaryFile{}, err
	}

	// GetObject is lazy, the first request is made by Stat.
	info, err := obj.Stat()
	if err != nil {
		closeErr := obj.Close()
		if isNotFound(err) {
			return representor.BinaryFile{}, representor.BinaryNotFoundError{Key: key}
		}
		return representor.BinaryFile{}, errors.Join(err, closeErr)
	}

	return representor.BinaryFile{
		Content:     obj,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// Binary adapts s to a binary field of T. key returns the object key of a
// model, or "" if the model has no payload.
//
//	representor.New(personID).
//		Binary("avatar", objectstore.Binary(store, func(p Person) string { return p.AvatarKey }))
func Binary[T any](s *Store, key func(T) string) func(context.Context, T) (representor.BinaryFile, error) {
	return func(ctx context.Context, m T) (representor.BinaryFile, error) {
		k := key(m)
		if k == "" {
			return representor.BinaryFile{}, representor.BinaryNotFoundError{Key: k}
		}
		return s.Open(ctx, k)
	}
}
