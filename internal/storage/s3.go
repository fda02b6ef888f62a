// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps blog post images in S3-compatible object storage.
// It wraps the AWS SDK v2 and uses path-style access so it works with
// MinIO, CEPH and Hetzner as well as AWS.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// imagePrefix is the key prefix under which post images are stored.
const imagePrefix = "posts/"

// Config locates the bucket. PublicURL is an optional CDN or custom
// domain that serves the bucket's objects.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Enabled reports whether enough is configured to build a client.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Client stores and removes post images in a single public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// New creates a storage client. It returns (nil, nil) when storage is not
// configured so the site can run without image uploads.
func New(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("storage endpoint %q must include the scheme", cfg.Endpoint)
	}

	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// PutImage uploads an image under the posts/ prefix with a public-read ACL
// and returns the URL readers load it from.
func (c *Client) PutImage(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	key := imagePrefix + name
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// RemoveImage deletes the object behind an image URL. URLs that do not
// point into this bucket, such as the bundled /static images, are ignored.
func (c *Client) RemoveImage(ctx context.Context, rawURL string) error {
	key, ok := c.ObjectKey(rawURL)
	if !ok {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL of an object key. It uses the configured
// public URL if set, otherwise a path-style bucket URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// ObjectKey extracts the post image key from a URL produced by FileURL.
func (c *Client) ObjectKey(rawURL string) (string, bool) {
	prefixes := []string{c.endpoint + "/" + c.bucket + "/"}
	if c.publicURL != "" {
		prefixes = append([]string{c.publicURL + "/"}, prefixes...)
	}
	for _, prefix := range prefixes {
		if key, ok := strings.CutPrefix(rawURL, prefix); ok && strings.HasPrefix(key, imagePrefix) {
			return key, true
		}
	}
	return "", false
}
