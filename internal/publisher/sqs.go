package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"feed_ingestor/internal/domain"
)

// sqsClient is the subset of the SQS API used by SQS.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSConfig struct {
	QueueURL string
	Region   string
}

type SQS struct {
	queueURL string
	client   sqsClient
	logger   *slog.Logger
}

// NewSQS loads the default AWS credential chain for the configured region.
func NewSQS(ctx context.Context, cfg SQSConfig, logger *slog.Logger) (*SQS, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("sqs queue url is empty")
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info("sqs publisher configured", "queue_url", cfg.QueueURL, "region", cfg.Region)

	return newSQS(cfg.QueueURL, sqs.NewFromConfig(awsCfg), logger), nil
}

func newSQS(queueURL string, client sqsClient, logger *slog.Logger) *SQS {
	return &SQS{
		queueURL: queueURL,
		client:   client,
		logger:   logger.With("sink", "sqs"),
	}
}

func (s *SQS) Name() string { return "sqs" }

func (s *SQS) Publish(ctx context.Context, article *domain.Article) error {
	body, err := encodeArticle(article, time.Now())
	if err != nil {
		return err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventArticleCreated),
			},
			"source_id": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.FormatInt(article.SourceID, 10)),
			},
		},
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message to sqs: %w", err)
	}

	s.logger.Debug("published article", "source_id", article.SourceID, "link", article.Link)
	return nil
}

func (s *SQS) Close() error { return nil }
