package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// spotHistoryBatch limits instance types per DescribeSpotPriceHistory call;
// the API rejects much larger batches.
const spotHistoryBatch = 100

// AWSSource serves price list documents from the AWS Price List API and spot
// quotes from the EC2 spot price history.
type AWSSource struct {
	pricing *pricing.Client
	ec2     *ec2.Client
	region  string
}

// NewAWSSource builds a source for the given region. The pricing client must
// point at one of the regions that host the Price List API endpoint
// (us-east-1 works everywhere); region selects the prices being asked about.
func NewAWSSource(pricingClient *pricing.Client, ec2Client *ec2.Client, region string) *AWSSource {
	return &AWSSource{pricing: pricingClient, ec2: ec2Client, region: region}
}

// PriceList fetches the Linux/shared-tenancy product document for one
// instance type. A nil result with nil error means no record exists.
func (s *AWSSource) PriceList(ctx context.Context, instanceType string) (*PriceList, error) {
	filters := []pricingtypes.Filter{
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("instanceType"), Value: aws.String(instanceType)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("regionCode"), Value: aws.String(s.region)},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("Linux")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("Shared")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("preInstalledSw"), Value: aws.String("NA")},
		{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("capacitystatus"), Value: aws.String("Used")},
	}
	out, err := s.pricing.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching price list for %s: %w", instanceType, err)
	}
	if len(out.PriceList) == 0 {
		return nil, nil
	}
	var pl PriceList
	if err := json.Unmarshal([]byte(out.PriceList[0]), &pl); err != nil {
		return nil, fmt.Errorf("parsing price list for %s: %w", instanceType, err)
	}
	return &pl, nil
}

// SpotPrices returns the current spot price per instance type, taken as the
// cheapest availability zone's most recent quote within the last hour.
// Types without any quote are absent from the result.
func (s *AWSSource) SpotPrices(ctx context.Context, instanceTypes []string) (map[string]float64, error) {
	var typeNames []ec2types.InstanceType
	for _, it := range instanceTypes {
		typeNames = append(typeNames, ec2types.InstanceType(it))
	}

	type priceKey struct {
		itype string
		az    string
	}
	latest := map[priceKey]ec2types.SpotPrice{}
	startTime := time.Now().Add(-1 * time.Hour)

	for i := 0; i < len(typeNames); i += spotHistoryBatch {
		end := i + spotHistoryBatch
		if end > len(typeNames) {
			end = len(typeNames)
		}
		batch := typeNames[i:end]

		input := &ec2.DescribeSpotPriceHistoryInput{
			InstanceTypes:       batch,
			StartTime:           &startTime,
			ProductDescriptions: []string{"Linux/UNIX"},
		}
		paginator := ec2.NewDescribeSpotPriceHistoryPaginator(s.ec2, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("describing spot price history: %w", err)
			}
			for _, sp := range page.SpotPriceHistory {
				if sp.AvailabilityZone == nil || sp.SpotPrice == nil {
					continue
				}
				k := priceKey{string(sp.InstanceType), *sp.AvailabilityZone}
				existing, ok := latest[k]
				if !ok || sp.Timestamp.After(*existing.Timestamp) {
					latest[k] = sp
				}
			}
		}
	}

	prices := map[string]float64{}
	for k, sp := range latest {
		price, err := strconv.ParseFloat(*sp.SpotPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		if current, ok := prices[k.itype]; !ok || price < current {
			prices[k.itype] = price
		}
	}
	return prices, nil
}
