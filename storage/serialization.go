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

package storage

import (
	"github.com/poiesic/itemforge/core"
)

// MarshalExamItem serializes an ExamItem to bytes.
func MarshalExamItem(item *core.ExamItem) []byte {
	buf := make([]byte, core.ExamItemMUS.Size(*item))
	core.ExamItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalExamItem deserializes an ExamItem from bytes.
func UnmarshalExamItem(data []byte) (*core.ExamItem, error) {
	item, _, err := core.ExamItemMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalBatchCheckpoint serializes a BatchCheckpoint to bytes.
func MarshalBatchCheckpoint(cp *core.BatchCheckpoint) []byte {
	buf := make([]byte, core.BatchCheckpointMUS.Size(*cp))
	core.BatchCheckpointMUS.Marshal(*cp, buf)
	return buf
}

// UnmarshalBatchCheckpoint deserializes a BatchCheckpoint from bytes.
func UnmarshalBatchCheckpoint(data []byte) (*core.BatchCheckpoint, error) {
	cp, _, err := core.BatchCheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}
