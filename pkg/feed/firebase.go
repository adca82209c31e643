package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// etagReference is the part of a realtime database reference the watcher relies on
type etagReference interface {
	GetWithETag(ctx context.Context, v interface{}) (string, error)
	GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error)
}

// FirebaseSource watches a path of the Firebase realtime database. The Admin SDK has no
// streaming listener so the path is polled with an ETag, only changed values are emitted.
type FirebaseSource struct {
	reference    func(path string) etagReference
	pollInterval time.Duration
}

func NewFirebaseSource(ctx context.Context, settings config.FeedSettings) (*FirebaseSource, error) {
	var opts []option.ClientOption

	if settings.FirebaseServiceAccount != "" {
		decodedKey, err := base64.StdEncoding.DecodeString(settings.FirebaseServiceAccount)
		if err != nil {
			return nil, err
		}

		opts = append(opts, option.WithCredentialsJSON(decodedKey))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: settings.FirebaseDatabaseURL}, opts...)
	if err != nil {
		return nil, err
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}

	return &FirebaseSource{
		reference: func(path string) etagReference {
			return client.NewRef(path)
		},
		pollInterval: settings.PollInterval,
	}, nil
}

func (f *FirebaseSource) Watch(ctx context.Context, path string, emit func(Snapshot)) error {
	ref := f.reference(path)

	var value json.RawMessage
	etag, err := ref.GetWithETag(ctx, &value)
	if err != nil {
		return err
	}

	if err := emitDecoded(path, value, emit); err != nil {
		return err
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var changedValue json.RawMessage
		changed, newETag, err := ref.GetIfChanged(ctx, etag, &changedValue)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}

		etag = newETag
		log.Debug().Str("path", path).Str("etag", etag).Msg("Firebase path changed")

		if err := emitDecoded(path, changedValue, emit); err != nil {
			return err
		}
	}
}

func emitDecoded(path string, data []byte, emit func(Snapshot)) error {
	snapshot, err := DecodeSnapshot(path, data, time.Now())
	if err != nil {
		return err
	}

	emit(snapshot)

	return nil
}
