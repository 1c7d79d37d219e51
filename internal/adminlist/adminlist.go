package adminlist

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// List is the flat-file administrator allow-list: one chat id per line.
// Mutations rewrite the whole file; reads are served from memory.
type List struct {
	path string

	mu  sync.RWMutex
	ids map[int64]struct{}
}

// Open loads the allow-list from path, creating an empty file when absent.
func Open(path string) (*List, error) {
	l := &List{path: path, ids: map[int64]struct{}{}}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				return nil, fmt.Errorf("create admins file: %w", err)
			}
			return l, nil
		}
		return nil, fmt.Errorf("open admins file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		l.ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read admins file: %w", err)
	}

	return l, nil
}

// Contains reports whether id is an administrator.
func (l *List) Contains(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[id]
	return ok
}

// Add grants administrator rights. Reports whether the id was newly added.
func (l *List) Add(id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; ok {
		return false, nil
	}
	l.ids[id] = struct{}{}
	if err := l.persist(); err != nil {
		delete(l.ids, id)
		return false, err
	}
	return true, nil
}

// Remove revokes administrator rights. Reports whether the id was present.
func (l *List) Remove(id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; !ok {
		return false, nil
	}
	delete(l.ids, id)
	if err := l.persist(); err != nil {
		l.ids[id] = struct{}{}
		return false, err
	}
	return true, nil
}

// All returns the administrator ids in ascending order.
func (l *List) All() []int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]int64, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (l *List) persist() error {
	var sb strings.Builder
	for id := range l.ids {
		sb.WriteString(strconv.FormatInt(id, 10))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(l.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write admins file: %w", err)
	}
	return nil
}
