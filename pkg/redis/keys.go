package redis

import "fmt"

// Redis key patterns for the application
// Following the pattern: entity:id or entity:id:attribute

// ViewSnapshotKey holds the latest mirrored view of a panel
func ViewSnapshotKey(panel string) string {
	return fmt.Sprintf("view:%s:snapshot", panel)
}

// ViewChannel carries change events of a panel
func ViewChannel(panel string) string {
	return fmt.Sprintf("channel:view:%s", panel)
}
