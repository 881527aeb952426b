// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package policy

import "fmt"

// ObjectClass is the closed enumeration of kinds of objects which type
// enforcement rules mediate. Rule applicability requires exact class
// equality; there is no class hierarchy.
type ObjectClass uint16

const (
	ClassFile ObjectClass = iota + 1
	ClassDir
	ClassLnkFile
	ClassChrFile
	ClassBlkFile
	ClassSockFile
	ClassFifoFile
	ClassSocket
	ClassTCPSocket
	ClassUDPSocket
	ClassUnixStreamSocket
	ClassUnixDgramSocket
	ClassNetlinkSocket
	ClassProcess
	ClassSem
	ClassShm
	ClassMsgQueue
	ClassCapability
	ClassNode
	ClassNetif
	ClassPacket
	ClassFilesystem
	ClassKernel
)

var classNames = map[ObjectClass]string{
	ClassFile:             "file",
	ClassDir:              "dir",
	ClassLnkFile:          "lnk_file",
	ClassChrFile:          "chr_file",
	ClassBlkFile:          "blk_file",
	ClassSockFile:         "sock_file",
	ClassFifoFile:         "fifo_file",
	ClassSocket:           "socket",
	ClassTCPSocket:        "tcp_socket",
	ClassUDPSocket:        "udp_socket",
	ClassUnixStreamSocket: "unix_stream_socket",
	ClassUnixDgramSocket:  "unix_dgram_socket",
	ClassNetlinkSocket:    "netlink_socket",
	ClassProcess:          "process",
	ClassSem:              "sem",
	ClassShm:              "shm",
	ClassMsgQueue:         "msgq",
	ClassCapability:       "capability",
	ClassNode:             "node",
	ClassNetif:            "netif",
	ClassPacket:           "packet",
	ClassFilesystem:       "filesystem",
	ClassKernel:           "kernel",
}

func (cls ObjectClass) String() string {
	if name, ok := classNames[cls]; ok {
		return name
	}
	return fmt.Sprintf("ObjectClass(%#x)", uint16(cls))
}

// IsValid reports whether the class is one of the defined object
// classes.
func (cls ObjectClass) IsValid() bool {
	_, ok := classNames[cls]
	return ok
}
