package dynamo

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-api-flatfile/internal/domain"
)

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// Documents carry json tags only, so the codec reads those instead of
// dynamodbav tags. This keeps the stored shape identical to the file backend.
func marshalBody(doc any) (types.AttributeValue, error) {
	av, err := attributevalue.MarshalWithOptions(doc, func(o *attributevalue.EncoderOptions) {
		o.TagKey = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoding, err)
	}
	return av, nil
}

func unmarshalBody(av types.AttributeValue, out any) error {
	if av == nil {
		return fmt.Errorf("missing %s attribute: %w", attrBody, domain.ErrEncoding)
	}
	err := attributevalue.UnmarshalWithOptions(av, out, func(o *attributevalue.DecoderOptions) {
		o.TagKey = "json"
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEncoding, err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
