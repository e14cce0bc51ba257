package versionedstore

import (
	"bytes"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
)

var (
	versionsBucketName = []byte("v")
	journalBucketName  = []byte("j")
)

const heightKeyLength = 8

// versionedStore keeps every version of an entity's record. Versions
// are keyed by the inverted height so that a cursor over an entity
// yields the newest version first. A journal keyed by height allows
// deleting and pruning versions without scanning every entity.
type versionedStore struct {
	shardID        model.StagingShardID
	cache          *lru.Cache
	versionsBucket model.DBBucket
	journalBucket  model.DBBucket
}

// New instantiates a new VersionedStore for the given index
func New(prefixBucket model.DBBucket, index model.VersionedIndex, cacheSize int) (model.VersionedStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	indexBucket := prefixBucket.Bucket([]byte(index))
	return &versionedStore{
		shardID:        model.StagingShardID("VersionedStore-" + string(index)),
		cache:          cache,
		versionsBucket: indexBucket.Bucket(versionsBucketName),
		journalBucket:  indexBucket.Bucket(journalBucketName),
	}, nil
}

// Stage stages a version of the given entity written at the given height
func (vs *versionedStore) Stage(stagingArea *model.StagingArea, entityKey []byte, height uint64, record []byte) {
	stagingShard := vs.stagingShard(stagingArea)
	entity := string(entityKey)

	if heights, ok := stagingShard.toDelete[entity]; ok {
		delete(heights, height)
		if len(heights) == 0 {
			delete(stagingShard.toDelete, entity)
		}
	}
	versions, ok := stagingShard.toAdd[entity]
	if !ok {
		versions = make(map[uint64][]byte)
		stagingShard.toAdd[entity] = versions
	}
	versions[height] = cloneBytes(record)
}

func (vs *versionedStore) IsStaged(stagingArea *model.StagingArea) bool {
	return vs.stagingShard(stagingArea).isStaged()
}

// Latest returns the newest version of the given entity
func (vs *versionedStore) Latest(dbContext model.DBReader, stagingArea *model.StagingArea, entityKey []byte) ([]byte, error) {
	stagingShard := vs.stagingShard(stagingArea)
	entity := string(entityKey)

	if !stagingShard.touches(entity) {
		if record, ok := vs.cache.Get(entity); ok {
			return cloneBytes(record.([]byte)), nil
		}
	}

	record, err := vs.atHeight(dbContext, stagingShard, entityKey, math.MaxUint64)
	if err != nil {
		return nil, err
	}
	if !stagingShard.touches(entity) {
		vs.cache.Add(entity, cloneBytes(record))
	}
	return record, nil
}

// AtHeight returns the newest version of the given entity that was
// written at or below the given height
func (vs *versionedStore) AtHeight(dbContext model.DBReader, stagingArea *model.StagingArea,
	entityKey []byte, height uint64) ([]byte, error) {

	stagingShard := vs.stagingShard(stagingArea)
	return vs.atHeight(dbContext, stagingShard, entityKey, height)
}

func (vs *versionedStore) atHeight(dbContext model.DBReader, stagingShard *versionedStagingShard,
	entityKey []byte, height uint64) ([]byte, error) {

	entity := string(entityKey)
	if stagingShard.deleteAbove != nil && *stagingShard.deleteAbove < height {
		height = *stagingShard.deleteAbove
	}

	var stagedRecord []byte
	stagedHeight, found := uint64(0), false
	for versionHeight, record := range stagingShard.toAdd[entity] {
		if versionHeight <= height && (!found || versionHeight > stagedHeight) {
			stagedRecord, stagedHeight, found = record, versionHeight, true
		}
	}

	cursor, err := dbContext.Cursor(vs.versionsBucket.Bucket(entityKey))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		versionHeight, err := invertedKeyToHeight(key.Suffix())
		if err != nil {
			return nil, err
		}
		if versionHeight > height || stagingShard.isDeleted(entity, versionHeight) {
			continue
		}
		if found && stagedHeight >= versionHeight {
			break
		}
		record, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		return record, nil
	}

	if !found {
		return nil, errors.Wrapf(database.ErrNotFound, "no version of %x at or below height %d", entityKey, height)
	}
	return cloneBytes(stagedRecord), nil
}

type entityVersion struct {
	height uint64
	record []byte
}

// AllLatest returns the newest version of every entity, ordered by
// entity key
func (vs *versionedStore) AllLatest(dbContext model.DBReader, stagingArea *model.StagingArea) ([][]byte, error) {
	stagingShard := vs.stagingShard(stagingArea)
	latest := make(map[string]*entityVersion)

	cursor, err := dbContext.Cursor(vs.versionsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		suffix := key.Suffix()
		if len(suffix) < heightKeyLength+1 {
			return nil, errors.Errorf("malformed version key %x", suffix)
		}
		entity := string(suffix[:len(suffix)-heightKeyLength-1])
		if _, ok := latest[entity]; ok {
			continue
		}
		height, err := invertedKeyToHeight(suffix[len(suffix)-heightKeyLength:])
		if err != nil {
			return nil, err
		}
		if stagingShard.isDeleted(entity, height) {
			continue
		}
		record, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		latest[entity] = &entityVersion{height: height, record: record}
	}

	for entity, versions := range stagingShard.toAdd {
		for height, record := range versions {
			current, ok := latest[entity]
			if !ok || height >= current.height {
				latest[entity] = &entityVersion{height: height, record: cloneBytes(record)}
			}
		}
	}

	entities := make([]string, 0, len(latest))
	for entity := range latest {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	records := make([][]byte, len(entities))
	for i, entity := range entities {
		records[i] = latest[entity].record
	}
	return records, nil
}

// DeleteVersion deletes the version of the given entity written at the
// given height
func (vs *versionedStore) DeleteVersion(stagingArea *model.StagingArea, entityKey []byte, height uint64) {
	stagingShard := vs.stagingShard(stagingArea)
	entity := string(entityKey)

	if versions, ok := stagingShard.toAdd[entity]; ok {
		delete(versions, height)
		if len(versions) == 0 {
			delete(stagingShard.toAdd, entity)
		}
	}
	heights, ok := stagingShard.toDelete[entity]
	if !ok {
		heights = make(map[uint64]struct{})
		stagingShard.toDelete[entity] = heights
	}
	heights[height] = struct{}{}
}

// DeleteVersionsAbove deletes every version written above the given height
func (vs *versionedStore) DeleteVersionsAbove(stagingArea *model.StagingArea, height uint64) {
	stagingShard := vs.stagingShard(stagingArea)
	if stagingShard.deleteAbove == nil || height < *stagingShard.deleteAbove {
		stagingShard.deleteAbove = &height
	}

	for entity, versions := range stagingShard.toAdd {
		for versionHeight := range versions {
			if versionHeight > height {
				delete(versions, versionHeight)
			}
		}
		if len(versions) == 0 {
			delete(stagingShard.toAdd, entity)
		}
	}
}

// DeleteNonLatestBeforeHeight deletes, for every entity, all versions
// older than its newest version at or below the given height
func (vs *versionedStore) DeleteNonLatestBeforeHeight(stagingArea *model.StagingArea, height uint64) {
	stagingShard := vs.stagingShard(stagingArea)
	if stagingShard.pruneBelow == nil || height > *stagingShard.pruneBelow {
		stagingShard.pruneBelow = &height
	}
}

func (vs *versionedStore) ResetCache() {
	vs.cache.Purge()
}

type journalEntry struct {
	height    uint64
	entityKey []byte
}

// journalEntries returns the journal entries written at or below
// maxHeight, ordered by height. Journal keys start with the big-endian
// height, so the cursor stops at the first entry above maxHeight.
func (vs *versionedStore) journalEntries(dbContext model.DBReader, maxHeight uint64) ([]*journalEntry, error) {
	cursor, err := dbContext.Cursor(vs.journalBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var entries []*journalEntry
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		suffix := key.Suffix()
		if len(suffix) < heightKeyLength+1 {
			return nil, errors.Errorf("malformed journal key %x", suffix)
		}
		height, err := serialization.KeyBytesToUint64(suffix[:heightKeyLength])
		if err != nil {
			return nil, err
		}
		if height > maxHeight {
			break
		}
		entries = append(entries, &journalEntry{
			height:    height,
			entityKey: cloneBytes(suffix[heightKeyLength+1:]),
		})
	}
	return entries, nil
}

func (vs *versionedStore) deleteJournaledVersionsAbove(dbTx model.DBTransaction, height uint64) error {
	entries, err := vs.journalEntries(dbTx, math.MaxUint64)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.height <= height {
			continue
		}
		err := vs.deleteVersion(dbTx, entry.entityKey, entry.height)
		if err != nil {
			return err
		}
	}
	return nil
}

func (vs *versionedStore) pruneJournaledVersions(dbTx model.DBTransaction, height uint64) error {
	entries, err := vs.journalEntries(dbTx, height)
	if err != nil {
		return err
	}

	newestAtOrBelow := make(map[string]uint64)
	for _, entry := range entries {
		newestAtOrBelow[string(entry.entityKey)] = entry.height
	}
	for _, entry := range entries {
		if entry.height == newestAtOrBelow[string(entry.entityKey)] {
			continue
		}
		err := vs.deleteVersion(dbTx, entry.entityKey, entry.height)
		if err != nil {
			return err
		}
	}
	return nil
}

func (vs *versionedStore) deleteVersion(dbTx model.DBTransaction, entityKey []byte, height uint64) error {
	err := dbTx.Delete(vs.versionKey(entityKey, height))
	if err != nil {
		return err
	}
	return dbTx.Delete(vs.journalKey(height, entityKey))
}

func (vs *versionedStore) versionKey(entityKey []byte, height uint64) model.DBKey {
	return vs.versionsBucket.Bucket(entityKey).Key(serialization.Uint64ToKeyBytes(math.MaxUint64 - height))
}

func (vs *versionedStore) journalKey(height uint64, entityKey []byte) model.DBKey {
	return vs.journalBucket.Bucket(serialization.Uint64ToKeyBytes(height)).Key(entityKey)
}

func invertedKeyToHeight(keyBytes []byte) (uint64, error) {
	inverted, err := serialization.KeyBytesToUint64(keyBytes)
	if err != nil {
		return 0, err
	}
	return math.MaxUint64 - inverted, nil
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	return bytes.Clone(data)
}
