package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2Catalog serves instance type records from the EC2 DescribeInstanceTypes
// API. Any client satisfying the SDK's paginator interface works, which lets
// tests substitute a fake.
type EC2Catalog struct {
	client ec2.DescribeInstanceTypesAPIClient
}

func NewEC2Catalog(client ec2.DescribeInstanceTypesAPIClient) *EC2Catalog {
	return &EC2Catalog{client: client}
}

// InstanceTypes returns the full unfiltered catalog.
func (c *EC2Catalog) InstanceTypes(ctx context.Context) ([]InstanceType, error) {
	return c.describe(ctx, &ec2.DescribeInstanceTypesInput{}, Requirements{})
}

// InstanceTypesByRequirements returns instance types satisfying the hard
// constraints in req. Architecture and storage type become API-side filters;
// vCPU, memory and GPU bounds are applied client-side because the API cannot
// express range filters.
func (c *EC2Catalog) InstanceTypesByRequirements(ctx context.Context, req Requirements) ([]InstanceType, error) {
	input := &ec2.DescribeInstanceTypesInput{}
	if req.Architecture != "" {
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("processor-info.supported-architecture"),
			Values: []string{string(req.Architecture)},
		})
	}
	switch req.StorageType {
	case StorageInstance:
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("instance-storage-supported"),
			Values: []string{"true"},
		})
	case StorageEBS:
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("instance-storage-supported"),
			Values: []string{"false"},
		})
	}
	return c.describe(ctx, input, req)
}

func (c *EC2Catalog) describe(ctx context.Context, input *ec2.DescribeInstanceTypesInput, req Requirements) ([]InstanceType, error) {
	var results []InstanceType
	paginator := ec2.NewDescribeInstanceTypesPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describing instance types: %w", err)
		}
		for _, it := range page.InstanceTypes {
			rec := fromEC2(it)
			if !Satisfies(rec, req) {
				continue
			}
			results = append(results, rec)
		}
	}
	return results, nil
}

// ResolveTypes looks up the named instance types in the full catalog. Unknown
// names are dropped rather than reported as errors.
func (c *EC2Catalog) ResolveTypes(ctx context.Context, names []string) ([]InstanceType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var typeNames []types.InstanceType
	for _, n := range names {
		typeNames = append(typeNames, types.InstanceType(n))
	}
	result, err := c.client.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: typeNames,
	})
	if err != nil {
		return nil, fmt.Errorf("describing instance types: %w", err)
	}
	var records []InstanceType
	for _, it := range result.InstanceTypes {
		records = append(records, fromEC2(it))
	}
	return records, nil
}

func fromEC2(it types.InstanceTypeInfo) InstanceType {
	rec := InstanceType{
		Name:            string(it.InstanceType),
		InstanceStorage: it.InstanceStorageSupported != nil && *it.InstanceStorageSupported,
	}
	if it.VCpuInfo != nil && it.VCpuInfo.DefaultVCpus != nil {
		rec.VCPUs = *it.VCpuInfo.DefaultVCpus
	}
	if it.MemoryInfo != nil && it.MemoryInfo.SizeInMiB != nil {
		rec.MemoryMiB = *it.MemoryInfo.SizeInMiB
	}
	if it.CurrentGeneration != nil {
		rec.CurrentGeneration = *it.CurrentGeneration
	}
	if it.NetworkInfo != nil && it.NetworkInfo.NetworkPerformance != nil {
		rec.NetworkPerformance = *it.NetworkInfo.NetworkPerformance
	}
	if it.GpuInfo != nil && len(it.GpuInfo.Gpus) > 0 {
		gpu := &GPUInfo{}
		if it.GpuInfo.Gpus[0].Name != nil {
			gpu.Name = *it.GpuInfo.Gpus[0].Name
		}
		if it.GpuInfo.TotalGpuMemoryInMiB != nil {
			gpu.TotalMemoryMiB = int64(*it.GpuInfo.TotalGpuMemoryInMiB)
		}
		rec.GPU = gpu
	}
	if it.ProcessorInfo != nil {
		for _, a := range it.ProcessorInfo.SupportedArchitectures {
			rec.Architectures = append(rec.Architectures, Architecture(a))
		}
	}
	return rec
}

// Satisfies reports whether an instance type meets the hard constraints in
// req. This is the client-side half of requirement filtering; API filters
// already narrowed architecture and storage type.
func Satisfies(rec InstanceType, req Requirements) bool {
	if req.MinVCPUs > 0 && int(rec.VCPUs) < req.MinVCPUs {
		return false
	}
	if req.MaxVCPUs > 0 && int(rec.VCPUs) > req.MaxVCPUs {
		return false
	}
	if req.MinMemoryGiB > 0 && rec.MemoryGiB() < req.MinMemoryGiB {
		return false
	}
	if req.MaxMemoryGiB > 0 && rec.MemoryGiB() > req.MaxMemoryGiB {
		return false
	}
	if req.RequireGPU {
		if rec.GPU == nil {
			return false
		}
		if req.MinGPUMemoryGiB > 0 && rec.GPUMemoryGiB() < float64(req.MinGPUMemoryGiB) {
			return false
		}
	}
	return true
}
