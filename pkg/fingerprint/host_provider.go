package fingerprint

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/benmeehan/kiosk-agent/pkg/file"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	psnet "github.com/shirou/gopsutil/net"
)

const dmiDir = "/sys/class/dmi/id/"

// AppIdentity is the application part of the fingerprint, taken from config.
type AppIdentity struct {
	ApplicationID   string
	ApplicationName string
	Version         string
	BuildVersion    string
	DeviceType      int
}

// HostProvider reports device and network attributes of the machine the
// agent runs on.
type HostProvider struct {
	app        AppIdentity
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewHostProvider creates a HostProvider.
func NewHostProvider(app AppIdentity, fileClient file.FileOperations, logger zerolog.Logger) *HostProvider {
	return &HostProvider{app: app, fileClient: fileClient, logger: logger}
}

// DeviceAttributes gathers host information. Partial results are returned
// together with the first error encountered.
func (p *HostProvider) DeviceAttributes(ctx context.Context) (DeviceAttributes, error) {
	attrs := DeviceAttributes{
		ApplicationID:      p.app.ApplicationID,
		ApplicationName:    p.app.ApplicationName,
		ApplicationVersion: p.app.Version,
		BuildVersion:       p.app.BuildVersion,
		DeviceType:         p.app.DeviceType,
		Brand:              p.readDMI("board_vendor"),
		Manufacturer:       p.readDMI("sys_vendor"),
		ModelName:          p.readDMI("product_name"),
		DesignName:         p.readDMI("product_version"),
	}

	var errs []error

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		attrs.DeviceName = info.Hostname
		attrs.ModelID = info.HostID
		attrs.OSName = info.OS
		attrs.OSVersion = info.PlatformVersion
		attrs.ProductName = info.Platform
		attrs.IsDevice = info.VirtualizationRole != "guest"
		if attrs.DesignName == "" {
			attrs.DesignName = info.KernelArch
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		attrs.TotalMemory = vm.Total
	}

	return attrs, errors.Join(errs...)
}

// NetworkState returns the first up, non-loopback interface with an IPv4
// address. The kind is "WIFI" for wireless interface names, else "ETHERNET".
func (p *HostProvider) NetworkState(ctx context.Context) (string, string, error) {
	interfaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return "", "", err
	}

	for _, iface := range interfaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, addr := range iface.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil || ip.To4() == nil {
				continue
			}
			return networkKind(iface.Name), ip.String(), nil
		}
	}

	return "NONE", "", nil
}

func (p *HostProvider) readDMI(name string) string {
	if p.fileClient == nil {
		return ""
	}
	value, err := p.fileClient.ReadFile(dmiDir + name)
	if err != nil {
		p.logger.Debug().Err(err).Str("attribute", name).Msg("DMI attribute unavailable")
		return ""
	}
	return strings.TrimSpace(value)
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func networkKind(name string) string {
	if strings.HasPrefix(name, "wl") || strings.HasPrefix(name, "wifi") {
		return "WIFI"
	}
	return "ETHERNET"
}
