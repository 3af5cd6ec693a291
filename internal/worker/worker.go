package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/config"
	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/tasks"
)

// RunWorkers starts the asynq server and scheduler and blocks until ctx is
// canceled, then shuts both down.
func RunWorkers(ctx context.Context, cfg *config.Config, keyRepo apikey.Repository, logger *zap.Logger) error {
	redisConnOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(
		redisConnOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log := logger.Named("AsynqServerErrorHandler")
				log.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	mux := asynq.NewServeMux()

	expireHandler := tasks.NewAPIKeyExpireHandler(keyRepo, logger)
	mux.HandleFunc(tasks.TypeAPIKeyExpire, expireHandler.ProcessTask)

	scheduler := asynq.NewScheduler(
		redisConnOpts,
		&asynq.SchedulerOpts{
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqScheduler")),
		},
	)

	expireTask, err := tasks.NewAPIKeyExpireTask()
	if err != nil {
		return fmt.Errorf("scheduler task creation error: %w", err)
	}

	entryID, err := scheduler.Register("@every 1h", expireTask)
	if err != nil {
		return fmt.Errorf("scheduler registration error: %w", err)
	}
	logger.Info("Registered periodic api key expiration check",
		zap.String("entry_id", entryID),
		zap.String("schedule", "@every 1h"),
	)

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting Asynq Server...")
		if err := srv.Run(mux); err != nil {
			errChan <- fmt.Errorf("asynq server error: %w", err)
		}
	}()

	go func() {
		logger.Info("Starting Asynq Scheduler...")
		if err := scheduler.Run(); err != nil {
			errChan <- fmt.Errorf("asynq scheduler error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		scheduler.Shutdown()
		srv.Shutdown()
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down Asynq Scheduler...")
	scheduler.Shutdown()
	logger.Info("Shutting down Asynq Server...")
	srv.Shutdown()

	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
