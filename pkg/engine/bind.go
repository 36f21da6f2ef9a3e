package engine

import (
	"context"

	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/remote"
)

// Bind scopes the HTTP client to one collection, producing the Backend the
// engine consumes.
func Bind(client *remote.Client, coll model.Collection) Backend {
	return boundClient{client: client, coll: coll}
}

type boundClient struct {
	client *remote.Client
	coll   model.Collection
}

func (b boundClient) LoadAll(ctx context.Context) (map[string]model.Record, error) {
	return b.client.LoadAll(ctx, b.coll)
}

func (b boundClient) MissingInfo(ctx context.Context) (map[string][]string, error) {
	return b.client.MissingInfo(ctx, b.coll)
}

func (b boundClient) LoadOne(ctx context.Context, rowID model.RowID) (model.Record, error) {
	return b.client.LoadOne(ctx, b.coll, rowID)
}

func (b boundClient) WriteFields(ctx context.Context, rowID model.RowID, fields map[string]string) error {
	return b.client.WriteFields(ctx, b.coll, rowID, fields)
}

func (b boundClient) VerifyDocument(ctx context.Context, rowID model.RowID, url string) (model.MatchCategory, error) {
	return b.client.VerifyDocument(ctx, b.coll, rowID, url)
}

func (b boundClient) GenerateContent(ctx context.Context, rowID model.RowID, fields []string) error {
	return b.client.GenerateContent(ctx, b.coll, rowID, fields)
}

func (b boundClient) Subscribe(ctx context.Context) (<-chan remote.PushEvent, error) {
	return b.client.Subscribe(ctx, b.coll)
}
