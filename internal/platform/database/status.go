package database

import (
	"fmt"
	"sync"
	"time"
)

// redisStatus 跟踪Redis的可用性。
// Redis一旦重启，其中的会话和每日锁就全部丢失，
// 健康检查器据此状态决定是否触发缓存重建。
type redisStatus struct {
	mu             sync.RWMutex
	healthy        bool
	lastKnownRunID string
	unhealthySince time.Time
}

var currentRedisStatus = redisStatus{healthy: true}

// IsRedisHealthy 返回当前Redis的健康状态。
// 备份调度器在不健康期间会跳过快照。
func IsRedisHealthy() bool {
	currentRedisStatus.mu.RLock()
	defer currentRedisStatus.mu.RUnlock()
	return currentRedisStatus.healthy
}

// SetInitialRunID 在应用启动时设置初始的Redis run_id。
func SetInitialRunID(runID string) {
	currentRedisStatus.mu.Lock()
	defer currentRedisStatus.mu.Unlock()
	currentRedisStatus.lastKnownRunID = runID
}

// UpdateStatus 更新健康状态，状态翻转时打印一条日志。
// run_id只在健康状态下更新，保证重启后的重建不会被漏判。
func UpdateStatus(isHealthy bool, newRunID string) {
	currentRedisStatus.mu.Lock()
	defer currentRedisStatus.mu.Unlock()

	if currentRedisStatus.healthy != isHealthy {
		currentRedisStatus.healthy = isHealthy
		if isHealthy {
			downtime := time.Since(currentRedisStatus.unhealthySince).Round(time.Second)
			fmt.Printf("健康检查: Redis服务已恢复 [可用]，本次不可用持续 %v\n", downtime)
		} else {
			currentRedisStatus.unhealthySince = time.Now()
			fmt.Println("健康检查警告: Redis服务状态已更新为 [不可用]")
		}
	}

	if isHealthy {
		currentRedisStatus.lastKnownRunID = newRunID
	}
}

// GetLastKnownRunID 返回最近一次确认健康时的run_id。
func GetLastKnownRunID() string {
	currentRedisStatus.mu.RLock()
	defer currentRedisStatus.mu.RUnlock()
	return currentRedisStatus.lastKnownRunID
}
