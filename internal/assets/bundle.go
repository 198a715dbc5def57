package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dealerops/parts-forecast/internal/storage"
)

// Artifact file names inside a dealer's bundle directory. These match
// what the training pipeline exports.
const (
	modelFile   = "model.json"
	encoderFile = "part_encoder.json"
	avg3File    = "default_3month_avg.json"
	avg6File    = "default_6month_avg.json"
	std3File    = "default_3month_std.json"
	activeFile  = "is_active.json"
	dealerFile  = "dealer_code.json"
)

var (
	// ErrBundleNotFound means no assets exist for the dealer. Fatal for
	// that dealer's run.
	ErrBundleNotFound = errors.New("model bundle not found for dealer")
	// ErrAssetCorrupt means an artifact exists but cannot be decoded.
	ErrAssetCorrupt = errors.New("model asset corrupt")
)

// Bundle is the full set of per-dealer assets. Immutable after load and
// shared read-only across workers.
type Bundle struct {
	Dealer  string
	Model   Predictor
	Encoder *PartEncoder
	Stats   StatSet
	Active  ActiveMap
	// DealerCode is the label-encoded dealer value for schemas that
	// carry a dealer_code feature. Per-dealer models trained alone
	// encode their dealer as 0, which is also the fallback.
	DealerCode int
}

// Loader resolves a dealer's bundle from wherever artifacts live.
type Loader interface {
	Load(ctx context.Context, dealer string) (*Bundle, error)
}

// FSLoader reads bundle artifacts from <dir>/<dealer>/.
type FSLoader struct {
	Dir string
}

func NewFSLoader(dir string) *FSLoader {
	return &FSLoader{Dir: dir}
}

func (l *FSLoader) Load(ctx context.Context, dealer string) (*Bundle, error) {
	dealer = strings.TrimSpace(dealer)
	dir := filepath.Join(l.Dir, dealer)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, dealer)
	}

	bundle := &Bundle{Dealer: dealer}

	// The model and the encoder are required; a dealer without them
	// cannot be forecast at all.
	modelData, err := os.ReadFile(filepath.Join(dir, modelFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s missing %s", ErrBundleNotFound, dealer, modelFile)
	}
	model, err := ParseTreeModel(modelData)
	if err != nil {
		return nil, fmt.Errorf("%w: dealer %s: %v", ErrAssetCorrupt, dealer, err)
	}
	bundle.Model = model

	encoder := &PartEncoder{}
	if err := readJSONFile(filepath.Join(dir, encoderFile), encoder); err != nil {
		return nil, fmt.Errorf("%w: dealer %s: %v", ErrAssetCorrupt, dealer, err)
	}
	bundle.Encoder = encoder

	// Stats tables and the active map degrade to empty defaults when
	// absent; the run proceeds on global fallbacks.
	bundle.Stats = StatSet{
		Avg3: loadStats(dir, dealer, avg3File),
		Avg6: loadStats(dir, dealer, avg6File),
		Std3: loadStats(dir, dealer, std3File),
	}

	active := ActiveMap{}
	if err := readJSONFile(filepath.Join(dir, activeFile), &active); err != nil {
		log.Warn().Str("dealer", dealer).Str("file", activeFile).Err(err).
			Msg("activity map unavailable, treating all parts as inactive")
		active = ActiveMap{}
	}
	bundle.Active = active

	var dc struct {
		Code int `json:"code"`
	}
	if err := readJSONFile(filepath.Join(dir, dealerFile), &dc); err == nil {
		bundle.DealerCode = dc.Code
	}

	return bundle, nil
}

func loadStats(dir, dealer, name string) *DefaultStats {
	stats := &DefaultStats{}
	if err := readJSONFile(filepath.Join(dir, name), stats); err != nil {
		log.Warn().Str("dealer", dealer).Str("file", name).Err(err).
			Msg("default statistics unavailable, falling back to zero")
		return &DefaultStats{}
	}
	return stats
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ObjectLoader mirrors a dealer's artifacts from S3-compatible storage
// into a local directory, then loads them from disk.
type ObjectLoader struct {
	store storage.ObjectStorage
	local *FSLoader
}

func NewObjectLoader(store storage.ObjectStorage, cacheDir string) *ObjectLoader {
	return &ObjectLoader{store: store, local: NewFSLoader(cacheDir)}
}

func (l *ObjectLoader) Load(ctx context.Context, dealer string) (*Bundle, error) {
	dealer = strings.TrimSpace(dealer)
	prefix := dealer + "/"

	objects, err := l.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list artifacts for dealer %s: %w", dealer, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, dealer)
	}

	for _, obj := range objects {
		dest := filepath.Join(l.local.Dir, dealer, path.Base(obj.Key))
		if err := l.store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, fmt.Errorf("download artifact %s: %w", obj.Key, err)
		}
	}

	return l.local.Load(ctx, dealer)
}
