package lnk

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
)

var ErrBadLinkInfo = errors.New("lnk: corrupt link info")

const (
	linkInfoVolumeIDAndPath   = 1 << 0
	linkInfoCommonNetworkPath = 1 << 1
)

// DriveType enumerates VolumeID's drive-type field.
type DriveType uint32

const (
	DriveUnknown   DriveType = 0
	DriveNoRoot    DriveType = 1
	DriveRemovable DriveType = 2
	DriveFixed     DriveType = 3
	DriveRemote    DriveType = 4
	DriveCDROM     DriveType = 5
	DriveRAMDisk   DriveType = 6
)

// VolumeID is the local-volume descriptor embedded in LinkInfo.
type VolumeID struct {
	DriveType    DriveType
	SerialNumber uint32
	Label        string
}

// NetworkProviderType identifies which network redirector served the share
// (the WNNC_NET_* family).
type NetworkProviderType uint32

const (
	ProviderMSNet   NetworkProviderType = 0x00010000
	ProviderLanMan  NetworkProviderType = 0x00020000
	ProviderNetware NetworkProviderType = 0x00030000
	ProviderVines   NetworkProviderType = 0x00040000
	ProviderTenNet  NetworkProviderType = 0x00050000
	ProviderWebDAV  NetworkProviderType = 0x002E0000
	ProviderTermSrv NetworkProviderType = 0x00300000
	ProviderGoogle  NetworkProviderType = 0x00430000
)

// CommonNetworkRelativeLink describes a UNC share target.
type CommonNetworkRelativeLink struct {
	NetName      string
	DeviceName   string
	ProviderType NetworkProviderType
}

// LinkInfo is the decoded LinkInfo structure: a local volume plus
// base path, or a network-share descriptor plus a common path suffix.
type LinkInfo struct {
	Volume           *VolumeID
	LocalBasePath    string
	Network          *CommonNetworkRelativeLink
	CommonPathSuffix string
}

func parseLinkInfo(b []byte) (LinkInfo, error) {
	if len(b) < 28 {
		return LinkInfo{}, fmt.Errorf("%w: truncated", ErrBadLinkInfo)
	}
	headerSize := int(buf.U32LE(b[4:]))
	flags := buf.U32LE(b[8:])
	volumeIDOff := int(buf.U32LE(b[12:]))
	localBaseOff := int(buf.U32LE(b[16:]))
	netOff := int(buf.U32LE(b[20:]))
	suffixOff := int(buf.U32LE(b[24:]))

	var li LinkInfo

	if flags&linkInfoVolumeIDAndPath != 0 {
		if v, ok := parseVolumeID(b, volumeIDOff); ok {
			li.Volume = &v
		}
		li.LocalBasePath = readCString(b, localBaseOff)
	}
	if flags&linkInfoCommonNetworkPath != 0 {
		if n, ok := parseNetworkLink(b, netOff); ok {
			li.Network = &n
		}
	}
	li.CommonPathSuffix = readCString(b, suffixOff)
	_ = headerSize
	return li, nil
}

func parseVolumeID(b []byte, off int) (VolumeID, bool) {
	if off <= 0 || off+16 > len(b) {
		return VolumeID{}, false
	}
	v := b[off:]
	size := int(buf.U32LE(v))
	if size < 16 || off+size > len(b) {
		return VolumeID{}, false
	}
	labelOff := int(buf.U32LE(v[12:]))
	return VolumeID{
		DriveType:    DriveType(buf.U32LE(v[4:])),
		SerialNumber: buf.U32LE(v[8:]),
		Label:        readCString(b, off+labelOff),
	}, true
}

func parseNetworkLink(b []byte, off int) (CommonNetworkRelativeLink, bool) {
	if off <= 0 || off+20 > len(b) {
		return CommonNetworkRelativeLink{}, false
	}
	n := b[off:]
	size := int(buf.U32LE(n))
	if size < 20 || off+size > len(b) {
		return CommonNetworkRelativeLink{}, false
	}
	netNameOff := int(buf.U32LE(n[8:]))
	deviceNameOff := int(buf.U32LE(n[12:]))
	return CommonNetworkRelativeLink{
		NetName:      readCString(b, off+netNameOff),
		DeviceName:   readCString(b, off+deviceNameOff),
		ProviderType: NetworkProviderType(buf.U32LE(n[16:])),
	}, true
}

// readCString reads a NUL-terminated ASCII/ANSI string at a byte offset.
func readCString(b []byte, off int) string {
	if off <= 0 || off >= len(b) {
		return ""
	}
	end := off
	for end < len(b) && b[end] != 0 {
		end++
	}
	return string(b[off:end])
}
