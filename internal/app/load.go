package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/derickschaefer/jstat/internal/fetch"
	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/store"
)

// Loaded is the raw result of Load.
type Loaded struct {
	Source   fetch.Source
	Body     []byte
	CacheHit bool
	Warnings []string
}

// Load returns the bytes of src. Remote sources are served from the store
// when cached, unless Config.NoCache or Config.Refresh is set; freshly
// fetched remote documents are written back in every case. A store that
// cannot be opened downgrades to a warning.
func (d *Deps) Load(ctx context.Context, src string) (*Loaded, error) {
	s, err := d.Client.Resolve(src)
	if err != nil {
		return nil, err
	}
	out := &Loaded{Source: s}

	useStore := s.Cacheable()
	if useStore {
		if err := d.RequireStore(); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("cache disabled: %v", err))
			useStore = false
		}
	}

	if useStore && !d.Config.NoCache && !d.Config.Refresh {
		doc, found, err := d.Store.GetDocument(s.Location)
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("cache read: %v", err))
		} else if found {
			slog.Debug("cache hit", "source", s.Location, "bytes", doc.Size())
			out.Body = doc.Body
			out.CacheHit = true
			return out, nil
		}
	}

	body, err := d.Client.Read(ctx, s)
	if err != nil {
		return nil, err
	}
	out.Body = body

	if useStore {
		doc := store.Document{Source: s.Location, Class: peekClass(body), Body: body}
		if err := d.Store.PutDocument(doc); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("cache write: %v", err))
		}
	}
	return out, nil
}

// peekClass returns the class a document declares, or "" when it has none
// or is not JSON.
func peekClass(body []byte) string {
	var head struct {
		Class string `json:"class"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return ""
	}
	if !jsonstat.Class(head.Class).Valid() {
		return ""
	}
	return head.Class
}

// ─── Narrowing ────────────────────────────────────────────────────────────────

// Narrow decodes body and narrows it to the strict document its class calls
// for: a Dataset, else a Collection, else a standalone Dimension. When the
// document declares a class but fails that class's checks, the conversion
// error for that class is returned.
func Narrow(body []byte) (jsonstat.Document, error) {
	env, err := jsonstat.Decode(body)
	if err != nil {
		return nil, err
	}
	return NarrowEnvelope(env, body)
}

// NarrowEnvelope is Narrow for an already decoded envelope. body is needed
// only for standalone dimensions. env is consumed on success.
func NarrowEnvelope(env *jsonstat.Envelope, body []byte) (jsonstat.Document, error) {
	ds, err := jsonstat.ToDataset(env)
	if err == nil {
		return ds, nil
	}
	if !errors.Is(err, jsonstat.ErrClassMismatch) {
		return nil, err
	}
	coll, err := jsonstat.ToCollection(env)
	if err == nil {
		return coll, nil
	}
	if !errors.Is(err, jsonstat.ErrClassMismatch) {
		return nil, err
	}
	if env.Class == jsonstat.ClassDimension {
		dim, err := jsonstat.DecodeDimension(body)
		if err != nil {
			return nil, err
		}
		return dim, nil
	}
	return nil, err
}
