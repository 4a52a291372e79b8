package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Config names the tables and queue backing the board service.
type Config struct {
	ConnectionString string
	BoardsTable      string
	TasksTable       string
	UsersTable       string
	SharesTable      string
	PurgeQueue       string
}

// Storage provides access to the underlying persistence mechanisms: one
// table per collection plus the board purge queue.
type Storage struct {
	boards *aztables.Client
	tasks  *aztables.Client
	users  *aztables.Client
	shares *aztables.Client
	purge  purgeQueue
}

// New creates a Storage instance from the given configuration.
func New(cfg Config) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnectionString, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	pq, err := azqueue.NewQueueClientFromConnectionString(cfg.ConnectionString, cfg.PurgeQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		boards: svc.NewClient(cfg.BoardsTable),
		tasks:  svc.NewClient(cfg.TasksTable),
		users:  svc.NewClient(cfg.UsersTable),
		shares: svc.NewClient(cfg.SharesTable),
		purge:  pq,
	}, nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func isNotFound(err error) bool { return isStatus(err, http.StatusNotFound) }
func isConflict(err error) bool { return isStatus(err, http.StatusConflict) }

// escapeFilterValue doubles single quotes for use inside an OData filter
// string literal.
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

func eqFilter(property, value string) string {
	return fmt.Sprintf("%s eq '%s'", property, escapeFilterValue(value))
}
