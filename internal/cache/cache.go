package cache

// Cache holds query cache entries under their canonical string keys.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Keys() []string
	Len() int
	Clear()
}
