package app

import "sync"

// ChatQueue выполняет апдейты одного чата по одному и в порядке поступления.
// Разные чаты обрабатываются параллельно, у каждого занятого чата свой воркер.
type ChatQueue struct {
	mu   sync.Mutex
	byID map[int64][]func()
	wg   sync.WaitGroup
}

func NewChatQueue() *ChatQueue {
	return &ChatQueue{byID: make(map[int64][]func())}
}

// Enqueue ставит задачу в очередь чата. Вызывать из одной горутины приёма апдейтов,
// иначе порядок между вызовами не определён.
func (q *ChatQueue) Enqueue(chatID int64, fn func()) {
	q.mu.Lock()
	pending, busy := q.byID[chatID]
	q.byID[chatID] = append(pending, fn)
	if !busy {
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if !busy {
		go q.drain(chatID)
	}
}

// drain — воркер чата. Уходит, когда очередь пуста; ключ чата удаляется вместе с ним.
func (q *ChatQueue) drain(chatID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		pending := q.byID[chatID]
		if len(pending) == 0 {
			delete(q.byID, chatID)
			q.mu.Unlock()
			return
		}
		fn := pending[0]
		pending[0] = nil
		q.byID[chatID] = pending[1:]
		q.mu.Unlock()

		fn()
	}
}

// Wait ждёт, пока все воркеры разберут свои очереди.
func (q *ChatQueue) Wait() {
	q.wg.Wait()
}

func (q *ChatQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byID)
}
