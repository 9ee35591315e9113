package catalog

// Architecture is a CPU architecture label as reported by EC2.
type Architecture string

const (
	ArchX8664 Architecture = "x86_64"
	ArchARM64 Architecture = "arm64"
)

// StorageType selects the kind of instance storage a caller needs.
type StorageType string

const (
	StorageAny      StorageType = "any"
	StorageEBS      StorageType = "ebs"
	StorageInstance StorageType = "instance"
)

// Requirements describes the hardware a caller is asking for. All fields are
// optional; the zero value matches everything.
type Requirements struct {
	MinVCPUs        int
	MaxVCPUs        int
	MinMemoryGiB    float64
	MaxMemoryGiB    float64
	RequireGPU      bool
	MinGPUMemoryGiB int
	Architecture    Architecture
	// NetworkPerformance holds labels like "High" or "Up to 10 Gigabit".
	// An instance matches when any label is a substring of its own label.
	NetworkPerformance []string
	StorageType        StorageType
}

// GPUInfo describes the GPU devices of an instance type.
type GPUInfo struct {
	Name           string
	TotalMemoryMiB int64
}

// InstanceType is one catalog record. Read-only once constructed.
type InstanceType struct {
	Name               string
	VCPUs              int32
	MemoryMiB          int64
	GPU                *GPUInfo
	NetworkPerformance string
	CurrentGeneration  bool
	Architectures      []Architecture
	InstanceStorage    bool
}

// MemoryGiB returns the instance memory in GiB.
func (i InstanceType) MemoryGiB() float64 {
	return float64(i.MemoryMiB) / 1024.0
}

// GPUMemoryGiB returns the total GPU memory in GiB, 0 when there is no GPU.
func (i InstanceType) GPUMemoryGiB() float64 {
	if i.GPU == nil {
		return 0
	}
	return float64(i.GPU.TotalMemoryMiB) / 1024.0
}
