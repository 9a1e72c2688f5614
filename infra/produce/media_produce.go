package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// MediaMirrorQueue carries new derived files to the mirror worker.
	MediaMirrorQueue = "media.mirror"
	// MediaDeleteQueue carries removals of previously mirrored files.
	MediaDeleteQueue = "media.delete"
)

// MediaMirrorMessage asks the mirror worker to replicate derived files for
// one record to the off-site bucket.
type MediaMirrorMessage struct {
	JobID      string   `json:"job_id"`
	ObjectType string   `json:"object_type"`
	RecordID   int64    `json:"record_id"`
	Files      []string `json:"files"`
	Timestamp  int64    `json:"timestamp"`
}

// MediaDeleteMessage asks the mirror worker to drop files from the off-site
// bucket after a record or image deletion.
type MediaDeleteMessage struct {
	ObjectType string   `json:"object_type"`
	RecordID   int64    `json:"record_id"`
	Files      []string `json:"files"`
	Timestamp  int64    `json:"timestamp"`
}

func (p *Produce) PublishMediaMirror(ctx context.Context, msg MediaMirrorMessage) error {
	msg.Timestamp = time.Now().Unix()
	return p.publish(ctx, MediaMirrorQueue, msg)
}

func (p *Produce) PublishMediaDelete(ctx context.Context, msg MediaDeleteMessage) error {
	msg.Timestamp = time.Now().Unix()
	return p.publish(ctx, MediaDeleteQueue, msg)
}

func (p *Produce) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
