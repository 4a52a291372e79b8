package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

const purgeBatchSize = 16

// purgeQueue is the slice of the queue client the purge path uses; tests
// substitute a fake.
type purgeQueue interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	DequeueMessages(ctx context.Context, o *azqueue.DequeueMessagesOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

type purgeCommand struct {
	BoardID string `json:"boardId"`
}

// EnqueueBoardPurge schedules removal of a deleted board's task partition
// and share index rows.
func (s *Storage) EnqueueBoardPurge(ctx context.Context, boardID string) error {
	data, err := json.Marshal(purgeCommand{BoardID: boardID})
	if err != nil {
		return err
	}
	_, err = s.purge.EnqueueMessage(ctx, string(data), nil)
	return err
}

// PurgeBoard removes every task row in the board's partition and every
// share index row pointing at the board.
func (s *Storage) PurgeBoard(ctx context.Context, boardID string) error {
	if err := s.deleteBoardTasks(ctx, boardID); err != nil {
		return err
	}
	return s.deleteBoardShares(ctx, boardID)
}

type boardPurger interface {
	PurgeBoard(ctx context.Context, boardID string) error
}

// PurgeWorker drains the purge queue on an interval. A message is deleted
// only after the purge succeeds, so failed purges are redelivered.
type PurgeWorker struct {
	queue    purgeQueue
	purger   boardPurger
	interval time.Duration
	logger   *log.Logger
}

// NewPurgeWorker creates a worker draining s's purge queue.
func NewPurgeWorker(s *Storage, interval time.Duration, logger *log.Logger) *PurgeWorker {
	return &PurgeWorker{queue: s.purge, purger: s, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (w *PurgeWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *PurgeWorker) drain(ctx context.Context) {
	for {
		n := int32(purgeBatchSize)
		resp, err := w.queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{NumberOfMessages: &n})
		if err != nil {
			if ctx.Err() == nil {
				w.logger.WithError(err).Warn("purge: dequeue failed")
			}
			return
		}
		if len(resp.Messages) == 0 {
			return
		}
		for _, msg := range resp.Messages {
			if msg == nil || msg.MessageID == nil || msg.PopReceipt == nil {
				continue
			}
			if !w.process(ctx, msg) {
				continue
			}
			if _, err := w.queue.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
				w.logger.WithError(err).Warn("purge: delete message failed")
			}
		}
	}
}

// process reports whether the message should be deleted from the queue.
func (w *PurgeWorker) process(ctx context.Context, msg *azqueue.DequeuedMessage) bool {
	var cmd purgeCommand
	if msg.MessageText == nil || json.Unmarshal([]byte(*msg.MessageText), &cmd) != nil || cmd.BoardID == "" {
		// Malformed messages can never succeed; drop them.
		w.logger.Warn("purge: dropping malformed message")
		return true
	}
	if err := w.purger.PurgeBoard(ctx, cmd.BoardID); err != nil {
		w.logger.WithError(err).WithField("board_id", cmd.BoardID).Warn("purge: board cleanup failed")
		return false
	}
	w.logger.WithField("board_id", cmd.BoardID).Debug("purge: board cleaned up")
	return true
}
