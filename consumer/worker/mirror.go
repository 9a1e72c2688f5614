package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/infra"
	"github.com/fieldworks/artifact-capture/infra/produce"
	"github.com/fieldworks/artifact-capture/repository"
)

// MirrorConsumer replicates derived files to the off-site bucket and removes
// mirrored copies when records or images are deleted. One goroutine per
// queue, manual acks.
type MirrorConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	uploadDir  string
}

func NewMirrorConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository, uploadDir string) *MirrorConsumer {
	return &MirrorConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
		uploadDir:  uploadDir,
	}
}

func (c *MirrorConsumer) Start(ctx context.Context) error {
	if c.infra.Minio == nil {
		return fmt.Errorf("MinIO is not configured; mirror consumer cannot start")
	}
	if err := c.infra.Minio.EnsureBucket(ctx); err != nil {
		return err
	}

	if err := c.startQueue(ctx, produce.MediaMirrorQueue, c.handleMirror); err != nil {
		return err
	}
	if err := c.startQueue(ctx, produce.MediaDeleteQueue, c.handleDelete); err != nil {
		return err
	}
	return nil
}

func (c *MirrorConsumer) startQueue(ctx context.Context, queue string, handle func(context.Context, amqp.Delivery)) error {
	msgs, err := c.channel.Consume(
		queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queue, err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Mirror Consumer] Started listening on queue: %s", queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Mirror Consumer] Shutting down %s...", queue)
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Mirror Consumer] Channel closed for %s", queue)
					return
				}
				handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *MirrorConsumer) handleMirror(ctx context.Context, msg amqp.Delivery) {
	var payload produce.MediaMirrorMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Mirror Consumer] Failed to unmarshal mirror message")
		_ = msg.Nack(false, false)
		return
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Mirror Consumer] Invalid job ID %q", payload.JobID)
		_ = msg.Nack(false, false)
		return
	}

	if err := c.repository.MirrorJobRepo.UpdateStatus(jobID, entity.MirrorStatusUploading, ""); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Mirror Consumer] Failed to mark job %s uploading: %v", jobID, err)
	}

	for _, name := range payload.Files {
		if name == "" {
			continue
		}
		if err := c.infra.Minio.MirrorFile(ctx, c.uploadDir, name); err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Mirror Consumer] Failed to mirror %s for %s record %d: %v",
				name, payload.ObjectType, payload.RecordID, err)
			_ = c.repository.MirrorJobRepo.UpdateStatus(jobID, entity.MirrorStatusFailed, err.Error())
			// requeue once; the broker redelivers until it succeeds or is
			// dead-lettered by policy
			_ = msg.Nack(false, !msg.Redelivered)
			return
		}
	}

	if err := c.repository.MirrorJobRepo.UpdateStatus(jobID, entity.MirrorStatusCompleted, ""); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Mirror Consumer] Failed to mark job %s completed: %v", jobID, err)
	}
	c.infra.Logger.InfoWithContextf(ctx, "[Mirror Consumer] Mirrored %d files for %s record %d",
		len(payload.Files), payload.ObjectType, payload.RecordID)
	_ = msg.Ack(false)
}

func (c *MirrorConsumer) handleDelete(ctx context.Context, msg amqp.Delivery) {
	var payload produce.MediaDeleteMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Mirror Consumer] Failed to unmarshal delete message")
		_ = msg.Nack(false, false)
		return
	}

	for _, name := range payload.Files {
		if name == "" {
			continue
		}
		if err := c.infra.Minio.RemoveMirroredFile(ctx, name); err != nil {
			c.infra.Logger.WarningWithContextf(ctx, "[Mirror Consumer] Failed to remove mirrored %s: %v", name, err)
		}
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Mirror Consumer] Removed %d mirrored files for %s record %d",
		len(payload.Files), payload.ObjectType, payload.RecordID)
	_ = msg.Ack(false)
}
