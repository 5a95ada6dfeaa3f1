// Package hclconfig loads pipeline definitions written in HCL into the
// format-agnostic config.Model.
//
// A file may contain any of the following top-level items:
//
//	params = {
//	  "linux.java8.oracle.64bit" = "/opt/jdk8"
//	}
//
//	template "EclipseBuildTemplate" {
//	  config = { "enable.oomph.plugin" = "false" }
//	}
//
//	scenario "Basic_Test_Coverage_Linux_Eclipse4_3_Java8" {
//	  templates = ["EclipseBuildTemplate"]
//	  config = {
//	    "gradle.tasks"  = "clean eclipseTest"
//	    "env.JAVA_HOME" = param["linux.java8.oracle.64bit"]
//	  }
//	  requirement {
//	    property  = "agent.os.name"
//	    condition = "contains"
//	    value     = "Linux"
//	  }
//	}
//
//	trigger "Basic Test Coverage (Phase 2/2)" {
//	  scenarios   = ["Basic_Test_Coverage_Linux_Eclipse4_3_Java8"]
//	  predecessor = "Basic Test Coverage (Trigger, Phase 1/2)"
//	}
//
// The `param` object holds the parameters of every file passed to one Load
// call. `config` values may also use %name% references, which are resolved
// later by config.Model.Declarations.
package hclconfig
