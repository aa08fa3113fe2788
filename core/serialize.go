// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-maintained MUS serializers for the persisted record types. Field order
// is the wire format; append new fields at the end only.

var (
	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
	float32SliceMUS = ord.NewSliceSer[float32](varint.Float32)
	stringMapMUS    = ord.NewMapSer[string, string](ord.String, ord.String)
	scoreMapMUS     = ord.NewMapSer[string, float64](ord.String, varint.Float64)
)

// timeSer serializes timestamps as UnixMicro. The zero time is encoded as 0;
// a stored timestamp of exactly the Unix epoch cannot occur in practice.
type timeSer struct{}

// TimeMUS serializes time.Time values.
var TimeMUS = timeSer{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (timeSer) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeSer) Size(t time.Time) (size int) {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type examItemSer struct{}

// ExamItemMUS serializes ExamItem records.
var ExamItemMUS = examItemSer{}

func (examItemSer) Marshal(v ExamItem, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Topic, bs[n:])
	n += stringSliceMUS.Marshal(v.Evidence, bs[n:])
	n += ord.String.Marshal(v.Stimulus, bs[n:])
	n += ord.String.Marshal(v.Stem, bs[n:])
	n += stringMapMUS.Marshal(v.Options, bs[n:])
	n += ord.String.Marshal(v.CorrectAnswer, bs[n:])
	n += ord.String.Marshal(v.Rationale, bs[n:])
	n += scoreMapMUS.Marshal(v.Scores, bs[n:])
	n += varint.Float64.Marshal(v.OverallScore, bs[n:])
	n += ord.String.Marshal(string(v.Tier), bs[n:])
	n += ord.String.Marshal(v.QualitySummary, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.String.Marshal(string(v.ReviewDecision), bs[n:])
	n += ord.String.Marshal(v.ReviewExplanation, bs[n:])
	n += ord.String.Marshal(v.ReviewedBy, bs[n:])
	n += TimeMUS.Marshal(v.ReviewedAt, bs[n:])
	n += ord.Bool.Marshal(v.WasEdited, bs[n:])
	n += stringMapMUS.Marshal(v.OriginalVersion, bs[n:])
	n += ord.String.Marshal(v.EditSummary, bs[n:])
	n += ord.String.Marshal(v.BatchId, bs[n:])
	n += varint.Int.Marshal(v.GenerationAttempt, bs[n:])
	n += varint.Float32.Marshal(v.SimilarityAtGeneration, bs[n:])
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += TimeMUS.Marshal(v.CreatedAt, bs[n:])
	n += TimeMUS.Marshal(v.ScoredAt, bs[n:])
	n += TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (examItemSer) Unmarshal(bs []byte) (v ExamItem, n int, err error) {
	var n1 int
	next := func(unmarshal func([]byte) (int, error)) bool {
		if err != nil {
			return false
		}
		n1, err = unmarshal(bs[n:])
		n += n1
		return err == nil
	}
	str := func(dst *string) func([]byte) (int, error) {
		return func(b []byte) (int, error) {
			s, m, e := ord.String.Unmarshal(b)
			*dst = s
			return m, e
		}
	}
	ts := func(dst *time.Time) func([]byte) (int, error) {
		return func(b []byte) (int, error) {
			t, m, e := TimeMUS.Unmarshal(b)
			*dst = t
			return m, e
		}
	}

	var tier, status, decision string
	next(str(&v.Id))
	next(str(&v.Topic))
	next(func(b []byte) (int, error) {
		s, m, e := stringSliceMUS.Unmarshal(b)
		v.Evidence = s
		return m, e
	})
	next(str(&v.Stimulus))
	next(str(&v.Stem))
	next(func(b []byte) (int, error) {
		s, m, e := stringMapMUS.Unmarshal(b)
		v.Options = s
		return m, e
	})
	next(str(&v.CorrectAnswer))
	next(str(&v.Rationale))
	next(func(b []byte) (int, error) {
		s, m, e := scoreMapMUS.Unmarshal(b)
		v.Scores = s
		return m, e
	})
	next(func(b []byte) (int, error) {
		f, m, e := varint.Float64.Unmarshal(b)
		v.OverallScore = f
		return m, e
	})
	next(str(&tier))
	next(str(&v.QualitySummary))
	next(str(&status))
	next(str(&decision))
	next(str(&v.ReviewExplanation))
	next(str(&v.ReviewedBy))
	next(ts(&v.ReviewedAt))
	next(func(b []byte) (int, error) {
		f, m, e := ord.Bool.Unmarshal(b)
		v.WasEdited = f
		return m, e
	})
	next(func(b []byte) (int, error) {
		s, m, e := stringMapMUS.Unmarshal(b)
		v.OriginalVersion = s
		return m, e
	})
	next(str(&v.EditSummary))
	next(str(&v.BatchId))
	next(func(b []byte) (int, error) {
		i, m, e := varint.Int.Unmarshal(b)
		v.GenerationAttempt = i
		return m, e
	})
	next(func(b []byte) (int, error) {
		f, m, e := varint.Float32.Unmarshal(b)
		v.SimilarityAtGeneration = f
		return m, e
	})
	next(func(b []byte) (int, error) {
		s, m, e := float32SliceMUS.Unmarshal(b)
		v.Vector = s
		return m, e
	})
	next(ts(&v.CreatedAt))
	next(ts(&v.ScoredAt))
	next(ts(&v.UpdatedAt))

	v.Tier = QualityTier(tier)
	v.Status = ReviewStatus(status)
	v.ReviewDecision = ReviewDecision(decision)
	return v, n, err
}

func (examItemSer) Size(v ExamItem) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.Topic)
	size += stringSliceMUS.Size(v.Evidence)
	size += ord.String.Size(v.Stimulus)
	size += ord.String.Size(v.Stem)
	size += stringMapMUS.Size(v.Options)
	size += ord.String.Size(v.CorrectAnswer)
	size += ord.String.Size(v.Rationale)
	size += scoreMapMUS.Size(v.Scores)
	size += varint.Float64.Size(v.OverallScore)
	size += ord.String.Size(string(v.Tier))
	size += ord.String.Size(v.QualitySummary)
	size += ord.String.Size(string(v.Status))
	size += ord.String.Size(string(v.ReviewDecision))
	size += ord.String.Size(v.ReviewExplanation)
	size += ord.String.Size(v.ReviewedBy)
	size += TimeMUS.Size(v.ReviewedAt)
	size += ord.Bool.Size(v.WasEdited)
	size += stringMapMUS.Size(v.OriginalVersion)
	size += ord.String.Size(v.EditSummary)
	size += ord.String.Size(v.BatchId)
	size += varint.Int.Size(v.GenerationAttempt)
	size += varint.Float32.Size(v.SimilarityAtGeneration)
	size += float32SliceMUS.Size(v.Vector)
	size += TimeMUS.Size(v.CreatedAt)
	size += TimeMUS.Size(v.ScoredAt)
	size += TimeMUS.Size(v.UpdatedAt)
	return size
}

type checkpointSer struct{}

// BatchCheckpointMUS serializes BatchCheckpoint records.
var BatchCheckpointMUS = checkpointSer{}

func (checkpointSer) Marshal(v BatchCheckpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.BatchId, bs)
	n += ord.String.Marshal(v.Topic, bs[n:])
	n += stringSliceMUS.Marshal(v.PendingItemIds, bs[n:])
	n += varint.Int.Marshal(v.UploadedCount, bs[n:])
	n += varint.Int.Marshal(v.DecidedCount, bs[n:])
	n += TimeMUS.Marshal(v.CreatedAt, bs[n:])
	n += TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (checkpointSer) Unmarshal(bs []byte) (v BatchCheckpoint, n int, err error) {
	var n1 int
	if v.BatchId, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Topic, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PendingItemIds, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UploadedCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DecidedCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (checkpointSer) Size(v BatchCheckpoint) (size int) {
	size = ord.String.Size(v.BatchId)
	size += ord.String.Size(v.Topic)
	size += stringSliceMUS.Size(v.PendingItemIds)
	size += varint.Int.Size(v.UploadedCount)
	size += varint.Int.Size(v.DecidedCount)
	size += TimeMUS.Size(v.CreatedAt)
	size += TimeMUS.Size(v.UpdatedAt)
	return size
}
