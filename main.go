// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// @title 模拟面试API
// @version 1.0
// @description 模拟面试与监考API

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /v1

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/service/task"
	"github.com/solutions/mock-interview/internal/service/web"

	"github.com/gin-gonic/gin"
	"github.com/jasonlvhit/gocron"
	"github.com/qiniu/x/log"
)

var (
	configFilePath = "mock-interview.conf"
	printSample    = false
)

func main() {
	fmt.Println(time.Now())
	flag.StringVar(&configFilePath, "f", configFilePath, "configuration file to run mock interview server")
	flag.BoolVar(&printSample, "sample", printSample, "print a sample configuration file and exit")
	flag.Parse()
	if printSample {
		out, _ := json.MarshalIndent(utils.NewSample(), "", "    ")
		fmt.Println(string(out))
		return
	}

	utils.InitConf(configFilePath)
	log.SetOutputLevel(utils.DefaultConf.DebugLevel)
	if utils.DefaultConf.DebugLevel > 0 {
		gin.SetMode(gin.ReleaseMode)
	}

	services, err := web.NewServices(&utils.DefaultConf)
	if err != nil {
		log.Fatalf("failed to init services, error %v", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Errorf("failed to close services, error %v", err)
		}
	}()

	// 启动定时任务
	go func() {
		interviewTask := task.NewInterviewTask(services.Interviews, utils.DefaultConf.Interview.StaleHours)
		_ = gocron.Every(1).Hours().Do(interviewTask.TaskForModifyInterviewStatus)
		<-gocron.Start()
	}()
	// 启动 gin HTTP server。
	r := web.NewRouter(&utils.DefaultConf, services)

	errch := make(chan error, 1)
	go func() {
		httpServerErr := r.Run(utils.DefaultConf.ListenAddr)
		errch <- httpServerErr
	}()

	qC := make(chan os.Signal, 1)
	signal.Notify(qC, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-qC:
		log.Info(s.String())
	case err = <-errch:
		log.Error("http server stopped, error", err.Error())
	}
	gocron.Clear()
}
