package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/docflow/pkg/middleware"
	"github.com/yeisme/docflow/pkg/scheduler"
)

func getScheduler(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return nil, false
	}

	return sched, true
}

// SchedulerJobs 返回所有后台任务信息.
//
//	@Summary	后台任务列表
//	@Tags		运维
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Router		/api/v1/admin/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即运行一次具名任务，例如孤儿 blob 清理.
//
//	@Summary	立即运行任务
//	@Tags		运维
//	@Param		name	path	string	true	"任务名"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}

// SchedulerRemoveJob 按名称或 id 删除任务.
//
//	@Summary	删除任务
//	@Tags		运维
//	@Param		name	path	string	true	"任务名或 id"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/scheduler/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	ref := c.Param("name")

	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		err = sched.RemoveJob(id)
	} else {
		err = sched.RemoveJobByName(ref)
	}

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary	等待中的任务数
//	@Tags		运维
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/v1/admin/scheduler/queue/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}
