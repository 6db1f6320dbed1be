/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package upload states the remote-upload contract the core hands
// finished AttackRecords to. The transport itself - what bucket, what
// credentials, what retry policy - is an out-of-scope external
// collaborator; this package only defines the interface and a disabled-
// by-default S3 realization of it.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
)

// Uploader forwards a batch of AttackRecords off-device. Implementations
// must not block the reactor: the core only ever calls Upload from a
// background goroutine, never from the event loop itself.
type Uploader interface {
	Upload(ctx context.Context, records []attacklog.Record) error
}

// Noop satisfies Uploader by discarding everything; it is the default
// when enable_remote_upload is false.
type Noop struct{}

func (Noop) Upload(context.Context, []attacklog.Record) error { return nil }

// S3Uploader writes each batch as one newline-delimited-JSON object to a
// bucket/prefix, keyed by a fresh UUID so concurrent batches never
// collide.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader loads the default AWS SDK config chain (env vars, shared
// config file, IAM role) and builds an uploader targeting bucket/prefix.
func NewS3Uploader(ctx context.Context, bucket, region, prefix string) (*S3Uploader, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("upload: load aws config: %w", err)
	}
	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Upload marshals records as newline-delimited JSON and puts them under a
// timestamped, UUID-suffixed key.
func (u *S3Uploader) Upload(ctx context.Context, records []attacklog.Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("upload: encode record: %w", err)
		}
	}

	key := fmt.Sprintf("%s/%s-%s.ndjson", u.prefix, time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("upload: put object: %w", err)
	}
	return nil
}
