package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types persisted by the embedded store.
// Field order is part of the on-disk format; append new fields, never reorder.

var (
	// ItemIDMUS serializes ItemID values.
	ItemIDMUS = itemIDMUS{}
	// TenantIDMUS serializes TenantID values.
	TenantIDMUS = tenantIDMUS{}
	// JobIDMUS serializes JobID values.
	JobIDMUS = jobIDMUS{}
	// TagStatusMUS serializes TagStatus values.
	TagStatusMUS = tagStatusMUS{}
	// ItemMUS serializes Item values.
	ItemMUS = itemMUS{}
	// VocabularyMUS serializes Vocabulary values.
	VocabularyMUS = vocabularyMUS{}
	// JobMUS serializes Job values.
	JobMUS = jobMUS{}

	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	itemIDSliceMUS = ord.NewSliceSer[ItemID](ItemIDMUS)
)

type itemIDMUS struct{}

var _ mus.Serializer[ItemID] = itemIDMUS{}

func (itemIDMUS) Marshal(v ItemID, bs []byte) int { return ord.String.Marshal(string(v), bs) }
func (itemIDMUS) Unmarshal(bs []byte) (ItemID, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	return ItemID(s), n, err
}
func (itemIDMUS) Size(v ItemID) int          { return ord.String.Size(string(v)) }
func (itemIDMUS) Skip(bs []byte) (int, error) { return ord.String.Skip(bs) }

type tenantIDMUS struct{}

var _ mus.Serializer[TenantID] = tenantIDMUS{}

func (tenantIDMUS) Marshal(v TenantID, bs []byte) int { return ord.String.Marshal(string(v), bs) }
func (tenantIDMUS) Unmarshal(bs []byte) (TenantID, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	return TenantID(s), n, err
}
func (tenantIDMUS) Size(v TenantID) int         { return ord.String.Size(string(v)) }
func (tenantIDMUS) Skip(bs []byte) (int, error) { return ord.String.Skip(bs) }

type jobIDMUS struct{}

var _ mus.Serializer[JobID] = jobIDMUS{}

func (jobIDMUS) Marshal(v JobID, bs []byte) int { return ord.String.Marshal(string(v), bs) }
func (jobIDMUS) Unmarshal(bs []byte) (JobID, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	return JobID(s), n, err
}
func (jobIDMUS) Size(v JobID) int             { return ord.String.Size(string(v)) }
func (jobIDMUS) Skip(bs []byte) (int, error)  { return ord.String.Skip(bs) }

type tagStatusMUS struct{}

var _ mus.Serializer[TagStatus] = tagStatusMUS{}

func (tagStatusMUS) Marshal(v TagStatus, bs []byte) int { return varint.Int.Marshal(int(v), bs) }
func (tagStatusMUS) Unmarshal(bs []byte) (TagStatus, int, error) {
	i, n, err := varint.Int.Unmarshal(bs)
	return TagStatus(i), n, err
}
func (tagStatusMUS) Size(v TagStatus) int       { return varint.Int.Size(int(v)) }
func (tagStatusMUS) Skip(bs []byte) (int, error) { return varint.Int.Skip(bs) }

type itemMUS struct{}

var _ mus.Serializer[Item] = itemMUS{}

func (itemMUS) Marshal(v Item, bs []byte) (n int) {
	n = ItemIDMUS.Marshal(v.Id, bs)
	n += TenantIDMUS.Marshal(v.TenantId, bs[n:])
	n += ord.String.Marshal(v.ImageRef, bs[n:])
	n += stringSliceMUS.Marshal(v.Tags, bs[n:])
	n += TagStatusMUS.Marshal(v.Status, bs[n:])
	n += JobIDMUS.Marshal(v.JobRef, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.InsertedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (itemMUS) Unmarshal(bs []byte) (v Item, n int, err error) {
	var n1 int
	if v.Id, n, err = ItemIDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.TenantId, n1, err = TenantIDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ImageRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Tags, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Status, n1, err = TagStatusMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.JobRef, n1, err = JobIDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (itemMUS) Size(v Item) (size int) {
	size = ItemIDMUS.Size(v.Id)
	size += TenantIDMUS.Size(v.TenantId)
	size += ord.String.Size(v.ImageRef)
	size += stringSliceMUS.Size(v.Tags)
	size += TagStatusMUS.Size(v.Status)
	size += JobIDMUS.Size(v.JobRef)
	size += raw.TimeUnixMicro.Size(v.InsertedAt)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (itemMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		ItemIDMUS.Skip, TenantIDMUS.Skip, ord.String.Skip, stringSliceMUS.Skip,
		TagStatusMUS.Skip, JobIDMUS.Skip, raw.TimeUnixMicro.Skip, raw.TimeUnixMicro.Skip,
	} {
		if n1, err = skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type vocabularyMUS struct{}

var _ mus.Serializer[Vocabulary] = vocabularyMUS{}

func (vocabularyMUS) Marshal(v Vocabulary, bs []byte) (n int) {
	n = TenantIDMUS.Marshal(v.TenantId, bs)
	n += stringSliceMUS.Marshal(v.Labels, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (vocabularyMUS) Unmarshal(bs []byte) (v Vocabulary, n int, err error) {
	var n1 int
	if v.TenantId, n, err = TenantIDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Labels, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (vocabularyMUS) Size(v Vocabulary) (size int) {
	size = TenantIDMUS.Size(v.TenantId)
	size += stringSliceMUS.Size(v.Labels)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (vocabularyMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		TenantIDMUS.Skip, stringSliceMUS.Skip, raw.TimeUnixMicro.Skip,
	} {
		if n1, err = skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type jobMUS struct{}

var _ mus.Serializer[Job] = jobMUS{}

func (jobMUS) Marshal(v Job, bs []byte) (n int) {
	n = JobIDMUS.Marshal(v.Id, bs)
	n += TenantIDMUS.Marshal(v.TenantId, bs[n:])
	n += itemIDSliceMUS.Marshal(v.ItemIds, bs[n:])
	n += ord.String.Marshal(v.Fingerprint, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.SubmittedAt, bs[n:])
	return n
}

func (jobMUS) Unmarshal(bs []byte) (v Job, n int, err error) {
	var n1 int
	if v.Id, n, err = JobIDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.TenantId, n1, err = TenantIDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ItemIds, n1, err = itemIDSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SubmittedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (jobMUS) Size(v Job) (size int) {
	size = JobIDMUS.Size(v.Id)
	size += TenantIDMUS.Size(v.TenantId)
	size += itemIDSliceMUS.Size(v.ItemIds)
	size += ord.String.Size(v.Fingerprint)
	size += raw.TimeUnixMicro.Size(v.SubmittedAt)
	return size
}

func (jobMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		JobIDMUS.Skip, TenantIDMUS.Skip, itemIDSliceMUS.Skip,
		ord.String.Skip, raw.TimeUnixMicro.Skip,
	} {
		if n1, err = skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}
