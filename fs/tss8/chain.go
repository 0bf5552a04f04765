package tss8

import (
	"github.com/pkg/errors"

	fsapi "pdpimage/fs"
)

// Retrieval blocks: an 8-word descriptor embedded in a directory's own word
// array (the MFD's track, or a UFD's file content), chained via word 0 to
// the next descriptor (0 ends the chain), with up to 7 block-number slots,
// matching AbstractFileDirectory.retrieval_blocks.

// retrievalBlocksOf walks the chain rooted at retrievalPointer (an offset
// into words) and returns the absolute disk block numbers it names.
func retrievalBlocksOf(fs *Filesystem, words []uint16, retrievalPointer int) []int {
	var out []int
	for retrievalPointer != 0 {
		next := int(words[retrievalPointer])
		for i := retrievalPointer + 1; i < retrievalPointer+retrievalSize; i++ {
			if words[i] != 0 {
				out = append(out, int(words[i])-1+fs.mfdBlock)
			}
		}
		retrievalPointer = next
	}
	return out
}

// readFileOf concatenates every block a retrieval chain names into one
// flat word slice, matching AbstractFileDirectory.read_file.
func readFileOf(fs *Filesystem, words []uint16, retrievalPointer int) ([]uint16, error) {
	var out []uint16
	for _, block := range retrievalBlocksOf(fs, words, retrievalPointer) {
		w, err := fs.readWordsBlock(block)
		if err != nil {
			return nil, err
		}
		out = append(out, w...)
	}
	return out, nil
}

// writeFileOf is the inverse of readFileOf, zero-padding the last block,
// matching AbstractFileDirectory.write_file.
func writeFileOf(fs *Filesystem, words []uint16, retrievalPointer int, content []uint16) error {
	for i, block := range retrievalBlocksOf(fs, words, retrievalPointer) {
		chunk := make([]uint16, wordsPerBlock)
		lo := i * wordsPerBlock
		if lo < len(content) {
			hi := lo + wordsPerBlock
			if hi > len(content) {
				hi = len(content)
			}
			copy(chunk, content[lo:hi])
		}
		if err := fs.writeWordsBlock(block, chunk); err != nil {
			return err
		}
	}
	return nil
}

// extendRetrievalOf allocates extend new blocks from bitmap and links them
// into the chain rooted at retrievalPointer, consuming free 8-word slots
// from freeDirBlocks to grow the chain itself when a descriptor fills up.
// Matches AbstractFileDirectory.extend_retrieval_blocks, mutating words and
// bitmap in place; the caller persists both.
func extendRetrievalOf(fs *Filesystem, words []uint16, retrievalPointer int, extend int, bitmap *storageAllocationTable, freeDirBlocks []int) ([]int, error) {
	allocated, err := bitmap.allocate(extend)
	if err != nil {
		return nil, err
	}
	free := append([]int(nil), freeDirBlocks...)
	for len(allocated) > 0 {
		next := int(words[retrievalPointer])
		for i := retrievalPointer + 1; i < retrievalPointer+retrievalSize; i++ {
			if words[i] == 0 {
				words[i] = uint16(allocated[0])
				allocated = allocated[1:]
				if len(allocated) == 0 {
					break
				}
			}
		}
		if len(allocated) > 0 && next == 0 {
			// The descriptor at retrievalPointer is full and chains nowhere:
			// graft a new descriptor from the directory's own free slots.
			// tss8fs.py leaves growing the directory itself as a TODO when
			// freeDirBlocks runs dry; so do we.
			if len(free) == 0 {
				return nil, errors.Wrap(fsapi.ErrNoSpace, "user file directory has no free retrieval-descriptor slots")
			}
			next = free[0]
			free = free[1:]
			words[retrievalPointer] = uint16(next)
			for i := 0; i < retrievalSize; i++ {
				words[next+i] = 0
			}
		}
		retrievalPointer = next
	}
	return free, nil
}

// reduceRetrievalOf frees every block past the first keep blocks in the
// chain, matching AbstractFileDirectory.reduce_retrieval_blocks.
func reduceRetrievalOf(words []uint16, retrievalPointer int, keep int, bitmap *storageAllocationTable) {
	for retrievalPointer != 0 {
		next := int(words[retrievalPointer])
		for i := retrievalPointer + 1; i < retrievalPointer+retrievalSize; i++ {
			if words[i] != 0 {
				if keep == 0 {
					bitmap.setFree(int(words[i]))
					words[i] = 0
				} else {
					keep--
				}
			}
		}
		retrievalPointer = next
	}
}

// freeRetrievalOf frees every block in the chain and clears its descriptors,
// matching AbstractFileDirectory.free_retrieval_blocks.
func freeRetrievalOf(words []uint16, retrievalPointer int, bitmap *storageAllocationTable) {
	for retrievalPointer != 0 {
		next := int(words[retrievalPointer])
		for i := retrievalPointer + 1; i < retrievalPointer+retrievalSize; i++ {
			if words[i] != 0 {
				bitmap.setFree(int(words[i]))
			}
		}
		for i := 0; i < retrievalSize; i++ {
			words[retrievalPointer+i] = 0
		}
		retrievalPointer = next
	}
}
