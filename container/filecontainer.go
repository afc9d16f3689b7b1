package container

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// fileContainerMagic identifies the reference single-file container format
// read by FileContainer. This is NOT a real HDF5 layout: a production
// deployment plugs in its own RawWordStore/MetaStore/ConfigProvider backed
// by an actual chunked HDF5 reader, which is an external collaborator out
// of scope here. This format exists only so this repository's own CLI
// and tests have something concrete to read without an HDF5 dependency.
var fileContainerMagic = [8]byte{'T', 'P', 'X', '3', 'R', 'E', 'F', '1'}

// FileContainer is a RawWordStore, MetaStore, and ConfigProvider backed by
// one flat reference-format file, loaded fully into memory.
type FileContainer struct {
	*MemStore
}

// OpenFileContainer reads a reference-format container file end to end.
func OpenFileContainer(path string) (*FileContainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "container: opening input container")
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "container: reading magic")
	}
	if magic != fileContainerMagic {
		return nil, errors.New("container: not a recognized reference container file")
	}

	var numChunks uint32
	if err := binary.Read(r, binary.LittleEndian, &numChunks); err != nil {
		return nil, errors.Wrap(err, "container: reading chunk count")
	}
	metas := make([]ChunkMeta, numChunks)
	for i := range metas {
		var m ChunkMeta
		if err := binary.Read(r, binary.LittleEndian, &m.IndexStart); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		if err := binary.Read(r, binary.LittleEndian, &m.IndexStop); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		if err := binary.Read(r, binary.LittleEndian, &m.DiscardError); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		if err := binary.Read(r, binary.LittleEndian, &m.DecodeError); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		if err := binary.Read(r, binary.LittleEndian, &m.ScanParamID); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		if err := binary.Read(r, binary.LittleEndian, &m.TimestampStart); err != nil {
			return nil, errors.Wrap(err, "container: reading chunk meta")
		}
		metas[i] = m
	}

	var numWords uint64
	if err := binary.Read(r, binary.LittleEndian, &numWords); err != nil {
		return nil, errors.Wrap(err, "container: reading word count")
	}
	words := make([]uint32, numWords)
	if err := binary.Read(r, binary.LittleEndian, words); err != nil {
		return nil, errors.Wrap(err, "container: reading raw words")
	}

	run, err := readKVTable(r)
	if err != nil {
		return nil, errors.Wrap(err, "container: reading run_config")
	}
	general, err := readKVTable(r)
	if err != nil {
		return nil, errors.Wrap(err, "container: reading generalConfig")
	}

	return &FileContainer{MemStore: &MemStore{Words: words, Metas: metas, Run: run, General: general}}, nil
}

// CreateFileContainer writes a reference-format container file, the
// inverse of OpenFileContainer; used by this repository's own tests and by
// operators preparing fixtures.
func CreateFileContainer(path string, words []uint32, metas []ChunkMeta, run, general map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "container: creating container file")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.Write(fileContainerMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(metas))); err != nil {
		return err
	}
	for _, m := range metas {
		if err := binary.Write(w, binary.LittleEndian, m.IndexStart); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.IndexStop); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.DiscardError); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.DecodeError); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.ScanParamID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.TimestampStart); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(words))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, words); err != nil {
		return err
	}
	if err := writeKVTable(w, run); err != nil {
		return err
	}
	if err := writeKVTable(w, general); err != nil {
		return err
	}
	return w.Flush()
}

func readKVTable(r io.Reader) (map[string]string, error) {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	table := make(map[string]string, count)
	for i := uint16(0); i < count; i++ {
		key, err := readString(r)
		if err != nil {
			return nil, err
		}
		val, err := readString(r)
		if err != nil {
			return nil, err
		}
		table[key] = val
	}
	return table, nil
}

func writeKVTable(w io.Writer, table map[string]string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(table))); err != nil {
		return err
	}
	for k, v := range table {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
