package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamDefinitionKey returns the cache key for a full exam definition (questions and answer key).
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:definition", examID)
}

// ExamIndexKey returns the cache key for the set of cached exam ids.
func (r *CacheKeyStruct) ExamIndexKey() string {
	return "exam:index"
}

var CacheKey = NewCacheKeyStruct()
