package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/eveexchange/backend/internal/domain"
)

// Well-known object names inside an SDE bundle, shared by the directory
// and blob loaders.
const (
	volumesFile    = "market_id_to_volume.json"
	blueprintsFile = "blueprints.json"
	groupsFile     = "market_groups.json"
)

// Load reads an SDE bundle from a local directory.
func Load(dir string, hubs map[int64]int64) (*Catalog, error) {
	open := func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	}
	return load(open, hubs)
}

// LoadFromBlob reads an SDE bundle from blob storage under the given key
// prefix, e.g. "sde/".
func LoadFromBlob(ctx context.Context, reader domain.BlobReader, prefix string, hubs map[int64]int64) (*Catalog, error) {
	open := func(name string) (io.ReadCloser, error) {
		return reader.Get(ctx, prefix+name)
	}
	return load(open, hubs)
}

func load(open func(name string) (io.ReadCloser, error), hubs map[int64]int64) (*Catalog, error) {
	c := &Catalog{hubs: hubs}
	if c.hubs == nil {
		c.hubs = DefaultHubs()
	}

	if err := parseFile(open, volumesFile, c.parseVolumes); err != nil {
		return nil, err
	}
	if err := parseFile(open, blueprintsFile, c.parseBlueprints); err != nil {
		return nil, err
	}
	if err := parseFile(open, groupsFile, c.parseMarketGroups); err != nil {
		return nil, err
	}
	return c, nil
}

func parseFile(open func(name string) (io.ReadCloser, error), name string, parse func(io.Reader) error) error {
	rc, err := open(name)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", name, err)
	}
	defer rc.Close()

	if err := parse(rc); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	return nil
}

// parseVolumes reads the {typeID: unitVolume} reference volume table.
func (c *Catalog) parseVolumes(r io.Reader) error {
	var raw map[string]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return err
	}
	c.volumes = make(map[int64]float64, len(raw))
	for k, v := range raw {
		typeID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return fmt.Errorf("volume table key %q: %w", k, err)
		}
		c.volumes[typeID] = v
	}
	return nil
}

// blueprintDoc matches the SDE blueprint export shape.
type blueprintDoc struct {
	Quantity  float64 `json:"quantity"`
	Materials []struct {
		TypeID   int64   `json:"typeID"`
		Quantity float64 `json:"quantity"`
	} `json:"materials"`
}

func (c *Catalog) parseBlueprints(r io.Reader) error {
	var raw map[string]blueprintDoc
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return err
	}
	c.blueprints = make(map[int64]domain.Blueprint, len(raw))
	for k, doc := range raw {
		typeID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return fmt.Errorf("blueprint key %q: %w", k, err)
		}
		bp := domain.Blueprint{
			TypeID:    typeID,
			Quantity:  doc.Quantity,
			Materials: make([]domain.Material, 0, len(doc.Materials)),
		}
		for _, m := range doc.Materials {
			bp.Materials = append(bp.Materials, domain.Material{
				TypeID:   m.TypeID,
				Quantity: m.Quantity,
			})
		}
		c.blueprints[typeID] = bp
	}
	return nil
}

// marketGroupDoc matches the recursive market group export shape.
type marketGroupDoc struct {
	Items []struct {
		ID int64 `json:"id"`
	} `json:"items"`
	ChildGroups []marketGroupDoc `json:"childGroups"`
}

func (c *Catalog) parseMarketGroups(r io.Reader) error {
	var groups []marketGroupDoc
	if err := json.NewDecoder(r).Decode(&groups); err != nil {
		return err
	}
	c.tradeable = make(map[int64]bool)
	var walk func(g marketGroupDoc)
	walk = func(g marketGroupDoc) {
		for _, item := range g.Items {
			c.tradeable[item.ID] = true
		}
		for _, child := range g.ChildGroups {
			walk(child)
		}
	}
	for _, g := range groups {
		walk(g)
	}

	c.typeIDs = make([]int64, 0, len(c.tradeable))
	for typeID := range c.tradeable {
		c.typeIDs = append(c.typeIDs, typeID)
	}
	sort.Slice(c.typeIDs, func(i, j int) bool { return c.typeIDs[i] < c.typeIDs[j] })
	return nil
}
