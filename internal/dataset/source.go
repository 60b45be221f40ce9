package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrCorpusNotFound is returned when the corpus location does not exist.
var ErrCorpusNotFound = errors.New("corpus not found")

const blobHostSuffix = ".blob.core.windows.net"

// Source is where the raw corpus bytes come from.
type Source interface {
	// Name identifies the source in logs, reports and errors.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// OpenSource returns a Source for location. Azure Blob Storage URLs
// (https://<account>.blob.core.windows.net/<container>/<blob>) are read
// through azblob; anything else is treated as a local path.
func OpenSource(location string) (Source, error) {
	if location == "" {
		return nil, errors.New("corpus location is empty")
	}

	u, err := url.Parse(location)
	if err == nil && u.Scheme == "https" && strings.HasSuffix(u.Host, blobHostSuffix) {
		return newBlobSource(u)
	}

	return &fileSource{path: location}, nil
}

type fileSource struct {
	path string
}

func (f *fileSource) Name() string { return f.path }

func (f *fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", f.path, err)
	}
	return file, nil
}

// BlobSource reads the corpus from a single Azure Storage blob.
type BlobSource struct {
	ServiceURL string
	Container  string
	Blob       string
	// SAS is the raw query string of a shared-access-signature URL. When set the
	// client is anonymous; otherwise DefaultAzureCredential is used.
	SAS string
}

func newBlobSource(u *url.URL) (*BlobSource, error) {
	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return nil, fmt.Errorf("blob URL %q must name a container and a blob", u.Redacted())
	}

	src := &BlobSource{
		ServiceURL: u.Scheme + "://" + u.Host + "/",
		Container:  container,
		Blob:       blob,
	}
	if u.Query().Has("sig") {
		src.SAS = u.RawQuery
	}
	return src, nil
}

func (b *BlobSource) Name() string {
	return b.ServiceURL + b.Container + "/" + b.Blob
}

func (b *BlobSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client, err := b.client()
	if err != nil {
		return nil, fmt.Errorf("corpus: blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, b.Container, b.Blob, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, b.Name())
		}
		return nil, fmt.Errorf("corpus: download %s: %w", b.Name(), err)
	}
	return resp.Body, nil
}

func (b *BlobSource) client() (*azblob.Client, error) {
	if b.SAS != "" {
		return azblob.NewClientWithNoCredential(b.ServiceURL+"?"+b.SAS, nil)
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azblob.NewClient(b.ServiceURL, cred, nil)
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// decompress wraps rc according to the compression suffix of name.
// Closing the result does not close rc.
func decompress(name string, rc io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
	default:
		return io.NopCloser(rc), nil
	}
}

func trimCompressionSuffix(name string) string {
	for _, suffix := range []string{".gz", ".zst"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
