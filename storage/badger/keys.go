package badger

// Key prefixes for different data types
const (
	taskPrefix = "task"
	casePrefix = "case"
)

// makeTaskKey generates a key for a task record by id.
// Format: prefix:id
func makeTaskKey(id string) []byte {
	return []byte(taskPrefix + ":" + id)
}

// makeCaseKey generates a key for a case binding.
// Format: prefix:caseID
func makeCaseKey(caseID string) []byte {
	return []byte(casePrefix + ":" + caseID)
}
