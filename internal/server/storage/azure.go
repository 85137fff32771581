package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/dmitrijs2005/officebridge/internal/common"
	"github.com/dmitrijs2005/officebridge/internal/server/models"
)

// AzureConfig selects the storage account. ConnectionString wins when set;
// otherwise AccountName and AccountKey are used against ServiceURL, which
// defaults to the public blob endpoint of the account.
type AzureConfig struct {
	ConnectionString string
	AccountName      string
	AccountKey       string
	ServiceURL       string
	Container        string
}

// AzureStore is a BlobStore over one Azure Blob Storage container.
type AzureStore struct {
	client *container.Client
	// cred signs SAS tokens; nil when the connection string carries none.
	cred *azblob.SharedKeyCredential
	now  func() time.Time
}

// NewAzureStore builds the container client. No request is made until
// the first operation.
func NewAzureStore(cfg AzureConfig, opts *container.ClientOptions) (*AzureStore, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure container is required")
	}

	s := &AzureStore{now: time.Now}

	if cfg.ConnectionString != "" {
		client, err := container.NewClientFromConnectionString(cfg.ConnectionString, cfg.Container, opts)
		if err != nil {
			return nil, fmt.Errorf("azure client: %w", err)
		}
		s.client = client

		parts := parseConnectionString(cfg.ConnectionString)
		if parts["AccountName"] != "" && parts["AccountKey"] != "" {
			cred, err := azblob.NewSharedKeyCredential(parts["AccountName"], parts["AccountKey"])
			if err != nil {
				return nil, fmt.Errorf("azure credential: %w", err)
			}
			s.cred = cred
		}
		return s, nil
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}
	containerURL, err := url.JoinPath(serviceURL, cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("azure service url: %w", err)
	}

	client, err := container.NewClientWithSharedKeyCredential(containerURL, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	s.client = client
	s.cred = cred
	return s, nil
}

// parseConnectionString splits "Key=Value;Key=Value". Values may contain
// '=' (base64 keys).
func parseConnectionString(cs string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(cs, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

func isAzureNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound)
}

func azureError(name string, err error) error {
	if isAzureNotFound(err) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, name)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrUpstream, name, err)
}

func (s *AzureStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.NewBlobClient(name).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if isAzureNotFound(err) {
		return false, nil
	}
	return false, azureError(name, err)
}

func (s *AzureStore) GetProperties(ctx context.Context, name string) (*models.Metadata, error) {
	resp, err := s.client.NewBlobClient(name).GetProperties(ctx, nil)
	if err != nil {
		return nil, azureError(name, err)
	}

	md := &models.Metadata{
		Name: name,
		Properties: models.Properties{
			ContentLength: deref(resp.ContentLength),
			ContentType:   deref(resp.ContentType),
			CacheControl:  deref(resp.CacheControl),
			LastModified:  deref(resp.LastModified),
		},
		Metadata: flattenMetadata(resp.Metadata),
	}
	if resp.ETag != nil {
		md.Properties.ETag = string(*resp.ETag)
	}
	return md, nil
}

func (s *AzureStore) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, azureError(name, err)
	}
	return resp.Body, nil
}

func (s *AzureStore) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) error {
	headers := &blob.HTTPHeaders{}
	if opts.ContentType != "" {
		headers.BlobContentType = to.Ptr(opts.ContentType)
	}
	if opts.CacheControl != "" {
		headers.BlobCacheControl = to.Ptr(opts.CacheControl)
	}

	_, err := s.client.NewBlockBlobClient(name).UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: headers,
	})
	if err != nil {
		return fmt.Errorf("%w: upload %s: %w", common.ErrUpstream, name, err)
	}
	return nil
}

func (s *AzureStore) List(ctx context.Context, prefix string) ([]models.Metadata, error) {
	opts := &container.ListBlobsFlatOptions{
		Include: container.ListBlobsInclude{Metadata: true},
	}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}

	var out []models.Metadata
	pager := s.client.NewListBlobsFlatPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list: %w", common.ErrUpstream, err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			md := models.Metadata{Name: *item.Name, Metadata: flattenMetadata(item.Metadata)}
			if p := item.Properties; p != nil {
				md.Properties = models.Properties{
					ContentLength: deref(p.ContentLength),
					ContentType:   deref(p.ContentType),
					CacheControl:  deref(p.CacheControl),
					LastModified:  deref(p.LastModified),
				}
				if p.ETag != nil {
					md.Properties.ETag = string(*p.ETag)
				}
			}
			out = append(out, md)
		}
	}
	return out, nil
}

// SignedReadURL signs a read-only, HTTPS-only SAS valid from now until
// now+ttl with the account key.
func (s *AzureStore) SignedReadURL(_ context.Context, name string, ttl time.Duration) (string, error) {
	if s.cred == nil {
		return "", fmt.Errorf("%w: no shared key to sign %s", common.ErrUpstream, name)
	}

	now := s.now().UTC()
	blobClient := s.client.NewBlobClient(name)

	parts, err := blob.ParseURL(blobClient.URL())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", common.ErrUpstream, name, err)
	}

	qp, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now,
		ExpiryTime:    now.Add(ttl),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: parts.ContainerName,
		BlobName:      parts.BlobName,
	}.SignWithSharedKey(s.cred)
	if err != nil {
		return "", fmt.Errorf("%w: sign %s: %w", common.ErrUpstream, name, err)
	}

	return blobClient.URL() + "?" + qp.Encode(), nil
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// flattenMetadata lowercases keys: property responses carry canonical
// header casing (Owner) while listings carry the stored form (owner).
func flattenMetadata(in map[string]*string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = deref(v)
	}
	return out
}
