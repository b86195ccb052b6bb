package executor

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"dynobench/internal/bench"
)

// Dynamo issues one DynamoDB Query per attempt against a table.
type Dynamo struct {
	client *dynamodb.Client
}

// NewDynamo builds the SDK client. The pool size bounds the HTTP
// connection pool so benchmark parallelism is not throttled by idle
// connection churn. SDK-internal retries are disabled: retry policy
// belongs to the benchmark, and hidden retries would skew latencies.
func NewDynamo(ctx context.Context, region string, poolSize int) (*Dynamo, error) {
	if poolSize < 1 {
		poolSize = 50
	}
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(t *http.Transport) {
		t.MaxIdleConns = poolSize
		t.MaxConnsPerHost = poolSize
		t.MaxIdleConnsPerHost = poolSize
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.RetryMaxAttempts = 1
	})
	return &Dynamo{client: client}, nil
}

func (d *Dynamo) Execute(ctx context.Context, spec bench.QuerySpec) error {
	keyCond, names, values := rangeQuery(spec)

	_, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(spec.Table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(spec.Consistency == bench.Strong),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// rangeQuery builds the key condition expression. The sort-key clause
// degrades gracefully: BETWEEN when both bounds are set, a one-sided
// comparison for a single bound, partition-only otherwise.
func rangeQuery(spec bench.QuerySpec) (string, map[string]string, map[string]ddbtypes.AttributeValue) {
	names := map[string]string{
		"#pk": spec.PartitionKey,
	}
	values := map[string]ddbtypes.AttributeValue{
		":pk": &ddbtypes.AttributeValueMemberS{Value: spec.PartitionValue},
	}

	cond := "#pk = :pk"
	if spec.SortKey == "" {
		return cond, names, values
	}

	names["#sk"] = spec.SortKey
	switch {
	case spec.SortStart != "" && spec.SortEnd != "":
		values[":start"] = &ddbtypes.AttributeValueMemberS{Value: spec.SortStart}
		values[":end"] = &ddbtypes.AttributeValueMemberS{Value: spec.SortEnd}
		cond += " AND #sk BETWEEN :start AND :end"
	case spec.SortStart != "":
		values[":start"] = &ddbtypes.AttributeValueMemberS{Value: spec.SortStart}
		cond += " AND #sk >= :start"
	case spec.SortEnd != "":
		values[":end"] = &ddbtypes.AttributeValueMemberS{Value: spec.SortEnd}
		cond += " AND #sk <= :end"
	}
	return cond, names, values
}

// classify maps an SDK error onto a bench.FailureKind so the retry
// wrapper can decide whether another attempt is worthwhile.
func classify(err error) error {
	kind := bench.KindOther

	var throttled *ddbtypes.ProvisionedThroughputExceededException
	var notFound *ddbtypes.ResourceNotFoundException
	var apiErr smithy.APIError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = bench.KindTimeout
	case errors.As(err, &throttled):
		kind = bench.KindThrottled
	case errors.As(err, &notFound):
		kind = bench.KindInvalidRequest
	case errors.As(err, &apiErr):
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "RequestLimitExceeded", "LimitExceededException":
			kind = bench.KindThrottled
		case "ValidationException", "SerializationException":
			kind = bench.KindInvalidRequest
		case "UnrecognizedClientException", "AccessDeniedException",
			"InvalidSignatureException", "MissingAuthenticationTokenException", "ExpiredTokenException":
			kind = bench.KindUnauthorized
		case "InternalServerError", "ServiceUnavailableException":
			kind = bench.KindTransientNetwork
		}
	case strings.Contains(err.Error(), "connection"), strings.Contains(err.Error(), "no such host"):
		kind = bench.KindTransientNetwork
	}

	return &bench.QueryError{Kind: kind, Err: err}
}
