package spaces

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Provider implements an S3 compatible image storage, such as digitalocean spaces
type Provider struct {
	spaces *s3.S3
	space  string
	tracer *tracing.Tracer
}

// New returns a new Provider instance
func New(tracer *tracing.Tracer, space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	spaces := s3.New(spacesSession)

	_, err = spaces.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(space),
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
		tracer: tracer,
	}, nil
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "spaces.Get")
	defer span.End()

	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}

	object := s3.GetObjectInput{
		Bucket: &p.space,
		Key:    aws.String(storage.SourceName(id)),
	}

	output, err := p.spaces.GetObjectWithContext(ctx, &object)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, output.Body)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Put uploads a rendered variant
func (p *Provider) Put(ctx context.Context, name string, data []byte) error {
	ctx, span := p.tracer.Start(ctx, "spaces.Put")
	defer span.End()

	if !storage.ValidID(name) {
		return storage.ErrInvalidID
	}

	_, err := p.spaces.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: &p.space,
		Key:    aws.String(name),
		Body:   bytes.NewReader(data),
	})

	return err
}

// List returns the ids of the source images in the space
func (p *Provider) List(ctx context.Context) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "spaces.List")
	defer span.End()

	ids := []string{}
	err := p.spaces.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: &p.space,
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			if id, ok := storage.SourceID(aws.StringValue(object.Key)); ok {
				ids = append(ids, id)
			}
		}
		return true
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}
