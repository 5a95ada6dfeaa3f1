// Package yamlconfig loads pipeline definitions written in YAML into the
// format-agnostic config.Model. It accepts the same items as the HCL loader:
//
//	params:
//	  linux.java8.oracle.64bit: /opt/jdk8
//	templates:
//	  EclipseBuildTemplate:
//	    config:
//	      enable.oomph.plugin: false
//	scenarios:
//	  - id: Basic_Test_Coverage_Linux_Eclipse4_3_Java8
//	    templates: [EclipseBuildTemplate]
//	    config:
//	      env.JAVA_HOME: "%linux.java8.oracle.64bit%"
//	    requirements:
//	      - property: agent.os.name
//	        condition: contains
//	        value: Linux
//	triggers:
//	  - name: Basic Test Coverage (Phase 2/2)
//	    scenarios: [Basic_Test_Coverage_Linux_Eclipse4_3_Java8]
//	    predecessor: Basic Test Coverage (Trigger, Phase 1/2)
//
// A file may hold several documents separated by `---`. Unknown keys are
// rejected.
package yamlconfig
