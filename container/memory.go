package container

import (
	"github.com/pkg/errors"

	"github.com/GasDet-Bonn/tpx3-interpretation/recordschema"
)

// MemStore is an in-memory RawWordStore, MetaStore, and ConfigProvider,
// used by tests and small throughput exercises.
type MemStore struct {
	Words []uint32
	Metas []ChunkMeta
	Run   map[string]string
	General map[string]string
}

func (m *MemStore) WordAt(i uint64) (uint32, error) {
	if i >= uint64(len(m.Words)) {
		return 0, errors.Errorf("container: raw word index %d out of range (len %d)", i, len(m.Words))
	}
	return m.Words[i], nil
}

func (m *MemStore) Len() uint64 { return uint64(len(m.Words)) }

func (m *MemStore) Chunks() ([]ChunkMeta, error) { return m.Metas, nil }

func (m *MemStore) RunConfig() (map[string]string, error) { return m.Run, nil }

func (m *MemStore) GeneralConfig() (map[string]string, error) { return m.General, nil }

// MemWriter is an in-memory HitWriter, used by tests to inspect the final
// output table without a real container backend.
type MemWriter struct {
	Rows          []recordschema.HitRow
	CopiedConfig  bool
	CopiedRun     map[string]string
	CopiedGeneral map[string]string
}

func (w *MemWriter) WriteHits(rows []recordschema.HitRow) error {
	w.Rows = append(w.Rows, rows...)
	return nil
}

func (w *MemWriter) CopyConfiguration(src ConfigProvider) error {
	run, err := src.RunConfig()
	if err != nil {
		return err
	}
	general, err := src.GeneralConfig()
	if err != nil {
		return err
	}
	w.CopiedRun = run
	w.CopiedGeneral = general
	w.CopiedConfig = true
	return nil
}
